package gen

import (
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// exportedName converts a model or field name to an exported Go
// identifier: "order_item" and "orderItem" both become "OrderItem".
func exportedName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(titleCaser.String(p))
	}
	return b.String()
}

// snakeName converts a name to snake_case for file names and route
// segments.
func snakeName(name string) string {
	return inflect.Underscore(name)
}

// pluralName returns the plural of a model name, preserving the
// original casing of the trailing word.
func pluralName(name string) string {
	return inflect.Pluralize(name)
}

// routePath returns the URL path segment for a model's collection,
// e.g. "OrderItem" -> "/order_items".
func routePath(model string) string {
	return "/" + snakeName(pluralName(model))
}

// serviceName returns the name of a model's generated service.
func serviceName(model string) string {
	return exportedName(model) + "Service"
}

// serviceMethods returns the ordered CRUD method list of a model's
// service.
func serviceMethods(model string) []string {
	n := exportedName(model)
	return []string{
		"Create" + n,
		"Find" + pluralName(n),
		"Find" + n,
		"Update" + n,
		"Delete" + n,
	}
}

// crudOperations are the per-model operation names recorded by the
// analysis phase and used by the registry and SDK generators.
var crudOperations = []string{"create", "findMany", "findOne", "update", "delete"}

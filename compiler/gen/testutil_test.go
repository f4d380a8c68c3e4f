package gen

import (
	"github.com/stencilkit/stencil/compiler/load"
)

// model builds a test model with an implicit string id field.
func model(name string, fields ...*load.Field) *load.Model {
	all := append([]*load.Field{{Name: "id", Type: "string", ID: true}}, fields...)
	return &load.Model{Name: name, Fields: all}
}

func scalar(name, typ string) *load.Field {
	return &load.Field{Name: name, Type: typ}
}

func relation(name, target string) *load.Field {
	return &load.Field{Name: name, Type: target, Relation: true}
}

// junction builds a pure join table: two relations and a single id
// scalar, matching the junction heuristic.
func junction(name, a, b string) *load.Model {
	return &load.Model{Name: name, Fields: []*load.Field{
		{Name: "id", Type: "string", ID: true},
		relation(snakeName(a), a),
		relation(snakeName(b), b),
	}}
}

// basicSchema is a two-model schema with no junctions.
func basicSchema() *load.Schema {
	return &load.Schema{
		Name: "blog",
		Models: []*load.Model{
			model("User", scalar("email", "string"), scalar("age", "int")),
			model("Post",
				scalar("title", "string"),
				scalar("published", "bool"),
				relation("author", "User"),
			),
		},
	}
}

// wideSchema is a ten-model schema where exactly three models match
// the junction heuristic.
func wideSchema() *load.Schema {
	names := []string{"User", "Group", "Post", "Tag", "Comment", "Category", "Role"}
	models := make([]*load.Model, 0, 10)
	for _, n := range names {
		models = append(models, model(n, scalar("name", "string"), scalar("rank", "int")))
	}
	models = append(models,
		junction("UserGroup", "User", "Group"),
		junction("PostTag", "Post", "Tag"),
		junction("UserRole", "User", "Role"),
	)
	return &load.Schema{Name: "wide", Models: models}
}

func testConfig(raw *RawConfig, opts ...Option) *Config {
	cfg, err := Normalize(raw, opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

package gen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/stencilkit/stencil/compiler/load"
)

// emitSDKClient renders the Go API client for one model: the record
// struct mirroring the model's scalar fields and a client with one
// method per CRUD operation.
func emitSDKClient(m *load.Model, a *ModelAnalysis) (string, error) {
	name := exportedName(m.Name)
	f := jen.NewFile("sdk")
	f.HeaderComment("Code generated by stencil. DO NOT EDIT.")

	fields := make([]jen.Code, 0, len(m.Fields))
	for _, fd := range m.Scalars() {
		fields = append(fields, jen.Id(exportedName(fd.Name)).
			Add(goType(fd)).
			Tag(map[string]string{"json": fd.Name}))
	}
	f.Commentf("%s mirrors the %s model's scalar fields.", name, m.Name)
	f.Type().Id(name).Struct(fields...)

	client := name + "Client"
	f.Commentf("%s calls the generated %s endpoints.", client, m.Name)
	f.Type().Id(client).Struct(
		jen.Id("base").String(),
		jen.Id("hc").Op("*").Qual("net/http", "Client"),
	)

	f.Commentf("New%s creates a client rooted at base.", client)
	f.Func().Id("New"+client).Params(jen.Id("base").String()).Op("*").Id(client).Block(
		jen.Return(jen.Op("&").Id(client).Values(jen.Dict{
			jen.Id("base"): jen.Id("base"),
			jen.Id("hc"):   jen.Qual("net/http", "DefaultClient"),
		})),
	)

	path := routePath(m.Name)
	f.Commentf("Create creates a %s.", m.Name)
	f.Func().Params(jen.Id("c").Op("*").Id(client)).Id("Create").
		Params(jen.Id("ctx").Qual("context", "Context"), jen.Id("in").Op("*").Id(name)).
		Params(jen.Op("*").Id(name), jen.Error()).
		Block(
			jen.Return(jen.Id("c").Dot("do").Call(
				jen.Id("ctx"), jen.Lit("POST"), jen.Lit(path), jen.Id("in"),
			)),
		)

	f.Commentf("Find returns the %s with the given id.", m.Name)
	f.Func().Params(jen.Id("c").Op("*").Id(client)).Id("Find").
		Params(jen.Id("ctx").Qual("context", "Context"), jen.Id("id").String()).
		Params(jen.Op("*").Id(name), jen.Error()).
		Block(
			jen.Return(jen.Id("c").Dot("do").Call(
				jen.Id("ctx"), jen.Lit("GET"), jen.Lit(path+"/").Op("+").Id("id"), jen.Nil(),
			)),
		)

	f.Commentf("Update updates the %s with the given id.", m.Name)
	f.Func().Params(jen.Id("c").Op("*").Id(client)).Id("Update").
		Params(jen.Id("ctx").Qual("context", "Context"), jen.Id("id").String(), jen.Id("in").Op("*").Id(name)).
		Params(jen.Op("*").Id(name), jen.Error()).
		Block(
			jen.Return(jen.Id("c").Dot("do").Call(
				jen.Id("ctx"), jen.Lit("PATCH"), jen.Lit(path+"/").Op("+").Id("id"), jen.Id("in"),
			)),
		)

	f.Commentf("Delete removes the %s with the given id.", m.Name)
	f.Func().Params(jen.Id("c").Op("*").Id(client)).Id("Delete").
		Params(jen.Id("ctx").Qual("context", "Context"), jen.Id("id").String()).
		Error().
		Block(
			jen.List(jen.Id("_"), jen.Err()).Op(":=").Id("c").Dot("do").Call(
				jen.Id("ctx"), jen.Lit("DELETE"), jen.Lit(path+"/").Op("+").Id("id"), jen.Nil(),
			),
			jen.Return(jen.Err()),
		)

	f.Func().Params(jen.Id("c").Op("*").Id(client)).Id("do").
		Params(
			jen.Id("ctx").Qual("context", "Context"),
			jen.Id("method").String(),
			jen.Id("path").String(),
			jen.Id("in").Any(),
		).
		Params(jen.Op("*").Id(name), jen.Error()).
		Block(
			jen.Var().Id("body").Qual("io", "Reader"),
			jen.If(jen.Id("in").Op("!=").Nil()).Block(
				jen.List(jen.Id("data"), jen.Err()).Op(":=").Qual("encoding/json", "Marshal").Call(jen.Id("in")),
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
				jen.Id("body").Op("=").Qual("bytes", "NewReader").Call(jen.Id("data")),
			),
			jen.List(jen.Id("req"), jen.Err()).Op(":=").Qual("net/http", "NewRequestWithContext").Call(
				jen.Id("ctx"), jen.Id("method"), jen.Id("c").Dot("base").Op("+").Id("path"), jen.Id("body"),
			),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.List(jen.Id("res"), jen.Err()).Op(":=").Id("c").Dot("hc").Dot("Do").Call(jen.Id("req")),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.Defer().Id("res").Dot("Body").Dot("Close").Call(),
			jen.If(jen.Id("res").Dot("StatusCode").Op(">=").Lit(400)).Block(
				jen.Return(jen.Nil(), jen.Qual("fmt", "Errorf").Call(
					jen.Lit("sdk: %s %s: status %d"), jen.Id("method"), jen.Id("path"), jen.Id("res").Dot("StatusCode"),
				)),
			),
			jen.Id("out").Op(":=").New(jen.Id(name)),
			jen.If(
				jen.Err().Op(":=").Qual("encoding/json", "NewDecoder").Call(jen.Id("res").Dot("Body")).Dot("Decode").Call(jen.Id("out")),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.Return(jen.Id("out"), jen.Nil()),
		)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("render %s client: %w", m.Name, err)
	}
	return buf.String(), nil
}

// goType maps a schema scalar type to the Go type used in SDK records.
func goType(f *load.Field) jen.Code {
	var code *jen.Statement
	switch f.Type {
	case "int", "bigint":
		code = jen.Int64()
	case "float", "decimal":
		code = jen.Float64()
	case "bool", "boolean":
		code = jen.Bool()
	case "datetime", "date":
		code = jen.Qual("time", "Time")
	case "json":
		code = jen.Map(jen.String()).Any()
	default:
		code = jen.String()
	}
	if f.List {
		return jen.Index().Add(code)
	}
	if f.Optional {
		return jen.Op("*").Add(code)
	}
	return code
}

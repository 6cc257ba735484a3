// Package gen emits typed per-model accessors from a frozen runtime
// schema: one Go file per model carrying the row struct and a named
// client wrapper forwarding to the generic engine. The input is the
// schema value itself, so generation needs no source-level analysis.
package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dave/jennifer/jen"

	"github.com/zenstack-dev/zen-go/schema"
)

const (
	clientPkg = "github.com/zenstack-dev/zen-go/client"
	sqlPkg    = "github.com/zenstack-dev/zen-go/dialect/sql"
)

// Config controls the generator output.
type Config struct {
	// Package is the generated package name.
	Package string
	// Dir is the output directory.
	Dir string
}

// Generate writes one <model>_gen.go file per model in the schema.
func Generate(s *schema.Schema, cfg Config) error {
	if cfg.Package == "" {
		cfg.Package = "models"
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return err
	}
	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, err := modelFile(s, s.Models[name], cfg.Package)
		if err != nil {
			return err
		}
		path := filepath.Join(cfg.Dir, schema.SnakeCase(name)+"_gen.go")
		if err := f.Save(path); err != nil {
			return fmt.Errorf("gen: writing %s: %w", path, err)
		}
	}
	return nil
}

// modelFile renders one model's row struct and client wrapper.
func modelFile(s *schema.Schema, m *schema.Model, pkg string) (*jen.File, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by zen gen. DO NOT EDIT.")

	fields := make([]jen.Code, 0, len(m.Fields))
	for _, fd := range m.Fields {
		if fd.Ignored || fd.IsRelation() {
			continue
		}
		stmt := jen.Id(schema.PascalCase(fd.Name))
		typ, err := goType(s, fd)
		if err != nil {
			return nil, fmt.Errorf("gen: %s.%s: %w", m.Name, fd.Name, err)
		}
		if fd.Optional && !fd.Array {
			stmt.Op("*")
		}
		stmt.Add(typ)
		tag := fd.Name
		if fd.Optional {
			tag += ",omitempty"
		}
		stmt.Tag(map[string]string{"json": tag})
		fields = append(fields, stmt)
	}
	f.Commentf("%s is the row shape of the %s model.", m.Name, m.Name)
	f.Type().Id(m.Name).Struct(fields...)

	clientName := m.Name + "Client"
	f.Commentf("%s is the typed accessor of the %s model.", clientName, m.Name)
	f.Type().Id(clientName).Struct(
		jen.Op("*").Qual(clientPkg, "TypedHandle").Index(jen.Id(m.Name)),
	)
	f.Commentf("New%s binds the accessor to a client.", clientName)
	f.Func().Id("New"+clientName).Params(
		jen.Id("c").Op("*").Qual(clientPkg, "Client"),
	).Op("*").Id(clientName).Block(
		jen.Return(jen.Op("&").Id(clientName).Values(
			jen.Qual(clientPkg, "Typed").Index(jen.Id(m.Name)).Call(jen.Id("c"), jen.Lit(m.Name)),
		)),
	)
	emitPredicates(f, s, m)
	return f, nil
}

// emitPredicates renders the model's predicate alias and its typed
// field builders, one generic wrapper per scalar column. The values
// plug straight into FindArgs.WhereP (and privacy filters).
func emitPredicates(f *jen.File, s *schema.Schema, m *schema.Model) {
	predName := m.Name + "Predicate"
	var decls []jen.Code
	values := jen.Dict{}
	for _, fd := range m.Fields {
		if fd.Ignored || fd.Computed || fd.IsRelation() || fd.Array {
			continue
		}
		wrapper, ok := predicateWrapper(s, predName, fd)
		if !ok {
			continue
		}
		name := schema.PascalCase(fd.Name)
		decls = append(decls, jen.Id(name).Add(wrapper))
		values[jen.Id(name)] = jen.Lit(fd.ColumnName())
	}
	if len(decls) == 0 {
		return
	}
	f.Commentf("%s is the selector-level predicate type of the %s model.", predName, m.Name)
	f.Type().Id(predName).Op("=").Func().Params(jen.Op("*").Qual(sqlPkg, "Selector"))
	f.Commentf("%sFields holds type-safe predicate builders for the %s model's columns.", m.Name, m.Name)
	f.Var().Id(m.Name + "Fields").Op("=").Struct(decls...).Values(values)
}

func predicateWrapper(s *schema.Schema, predName string, fd *schema.Field) (*jen.Statement, bool) {
	if _, ok := s.Enums[fd.Type]; ok {
		return jen.Qual(sqlPkg, "EnumField").Index(jen.Id(predName), jen.String()), true
	}
	switch fd.Type {
	case schema.TypeString:
		return jen.Qual(sqlPkg, "StringField").Index(jen.Id(predName)), true
	case schema.TypeBoolean:
		return jen.Qual(sqlPkg, "BoolField").Index(jen.Id(predName)), true
	case schema.TypeInt:
		return jen.Qual(sqlPkg, "IntField").Index(jen.Id(predName)), true
	case schema.TypeBigInt:
		return jen.Qual(sqlPkg, "Int64Field").Index(jen.Id(predName)), true
	case schema.TypeFloat, schema.TypeDecimal:
		return jen.Qual(sqlPkg, "Float64Field").Index(jen.Id(predName)), true
	case schema.TypeDateTime:
		return jen.Qual(sqlPkg, "TimeField").Index(jen.Id(predName), jen.Qual("time", "Time")), true
	}
	return nil, false
}

func goType(s *schema.Schema, fd *schema.Field) (*jen.Statement, error) {
	if fd.Array {
		elem, err := scalarGoType(s, fd.Type)
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	}
	return scalarGoType(s, fd.Type)
}

func scalarGoType(s *schema.Schema, typ string) (*jen.Statement, error) {
	if _, ok := s.Enums[typ]; ok {
		return jen.String(), nil
	}
	switch typ {
	case schema.TypeString:
		return jen.String(), nil
	case schema.TypeBoolean:
		return jen.Bool(), nil
	case schema.TypeInt:
		return jen.Int(), nil
	case schema.TypeBigInt:
		return jen.Int64(), nil
	case schema.TypeFloat:
		return jen.Float64(), nil
	case schema.TypeDecimal:
		return jen.Qual("github.com/shopspring/decimal", "Decimal"), nil
	case schema.TypeDateTime:
		return jen.Qual("time", "Time"), nil
	case schema.TypeJSON:
		return jen.Any(), nil
	case schema.TypeBytes:
		return jen.Index().Byte(), nil
	}
	if _, ok := s.TypeDefs[typ]; ok {
		return jen.Map(jen.String()).Any(), nil
	}
	return nil, fmt.Errorf("no Go type for %s", typ)
}

package sqlgraph

import (
	"fmt"
	"sort"

	zschema "github.com/zenstack-dev/zen-go/schema"
	schemafield "github.com/zenstack-dev/zen-go/schema/field"
)

// FromSchema lowers a frozen runtime schema into the graph description
// the predicate evaluator and the operation handlers traverse: one
// node per model, one edge per relation field.
func FromSchema(s *zschema.Schema) (*Schema, error) {
	g := &Schema{}
	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := s.Models[name]
		n := &Node{
			Type: m.Name,
			NodeSpec: NodeSpec{
				Table:  m.TableName(),
				Schema: m.DBSchema,
			},
			Fields: make(map[string]*FieldSpec, len(m.Fields)),
		}
		if len(m.IDFields) > 0 {
			idf := m.Field(m.IDFields[0])
			n.ID = &FieldSpec{Column: idf.ColumnName(), Type: columnType(s, idf)}
		}
		for _, f := range m.ScalarFields() {
			n.Fields[f.Name] = &FieldSpec{Column: f.ColumnName(), Type: columnType(s, f)}
		}
		g.Nodes = append(g.Nodes, n)
	}
	for _, name := range names {
		m := s.Models[name]
		for _, f := range m.RelationFields() {
			spec, err := edgeSpec(s, m, f)
			if err != nil {
				return nil, err
			}
			if err := g.AddE(f.Name, spec, m.Name, f.Type); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func edgeSpec(s *zschema.Schema, m *zschema.Model, f *zschema.Field) (*EdgeSpec, error) {
	target := s.Models[f.Type]
	opp := target.Field(f.Relation.Opposite)
	switch {
	case f.Array && opp.Array:
		// Implicit many-to-many join table, named after the sorted
		// model pair; key columns follow the same order.
		a, b := m.Name, target.Name
		inverse := false
		if a > b {
			a, b = b, a
			inverse = true
		}
		return &EdgeSpec{
			Rel:     M2M,
			Inverse: inverse,
			Table:   "_" + zschema.SnakeCase(a) + "_" + zschema.SnakeCase(b),
			Columns: []string{zschema.SnakeCase(a) + "_id", zschema.SnakeCase(b) + "_id"},
		}, nil
	case f.Relation.Owner():
		// FK on this model's table: to-one traversal.
		fk := m.Field(f.Relation.Fields[0])
		return &EdgeSpec{
			Rel:     M2O,
			Inverse: true,
			Table:   m.TableName(),
			Columns: []string{fk.ColumnName()},
			Schema:  m.DBSchema,
		}, nil
	case opp.Relation.Owner():
		// FK on the target's table: to-many (or inverse to-one).
		fk := target.Field(opp.Relation.Fields[0])
		return &EdgeSpec{
			Rel:     O2M,
			Table:   target.TableName(),
			Columns: []string{fk.ColumnName()},
			Schema:  target.DBSchema,
		}, nil
	}
	return nil, fmt.Errorf("sqlgraph: relation %s.%s has no owning side", m.Name, f.Name)
}

func columnType(s *zschema.Schema, f *zschema.Field) schemafield.Type {
	if _, ok := s.Enums[f.Type]; ok {
		return schemafield.TypeEnum
	}
	switch f.Type {
	case zschema.TypeString:
		return schemafield.TypeString
	case zschema.TypeBoolean:
		return schemafield.TypeBool
	case zschema.TypeInt:
		return schemafield.TypeInt
	case zschema.TypeBigInt:
		return schemafield.TypeInt64
	case zschema.TypeFloat, zschema.TypeDecimal:
		return schemafield.TypeFloat64
	case zschema.TypeDateTime:
		return schemafield.TypeTime
	case zschema.TypeBytes:
		return schemafield.TypeBytes
	default:
		return schemafield.TypeJSON
	}
}

// Node returns the node of the given model type.
func (g *Schema) Node(typ string) (*Node, error) { return g.node(typ) }

// Edge returns the spec and target node of the named edge.
func (n *Node) Edge(name string) (*EdgeSpec, *Node, bool) {
	e, ok := n.edges[name]
	if !ok {
		return nil, nil, false
	}
	return e.EdgeSpec, e.to, true
}

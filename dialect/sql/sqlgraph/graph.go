// Package sqlgraph provides graph abstraction capabilities on top of
// the sql builders: a relational description of node types and the
// edges between them, predicate evaluation of querylanguage expressions
// against that description, and classification of driver constraint
// errors.
package sqlgraph

import (
	"fmt"

	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/querylanguage"
	"github.com/zenstack-dev/zen-go/schema/field"
)

// Rel is an edge relation type.
type Rel int

// Relation types.
const (
	Unk Rel = iota // Unknown.
	O2O            // One to one / has one.
	O2M            // One to many / has many.
	M2O            // Many to one (inverse perspective for O2M).
	M2M            // Many to many.
)

// String returns the relation name.
func (r Rel) String() (s string) {
	switch r {
	case O2O:
		s = "O2O"
	case O2M:
		s = "O2M"
	case M2O:
		s = "M2O"
	case M2M:
		s = "M2M"
	default:
		s = "Unknown"
	}
	return s
}

// A FieldSpec holds the information needed for mapping a schema field
// to its database column.
type FieldSpec struct {
	Column string
	Type   field.Type
}

// NodeSpec defines the information for querying and decoding nodes in
// the graph.
type NodeSpec struct {
	Table  string
	Schema string
	ID     *FieldSpec
}

// Node in the graph: one per model/table.
type Node struct {
	NodeSpec
	// Type of the node (schema/model name).
	Type   string
	Fields map[string]*FieldSpec
	edges  map[string]graphEdge
}

// EdgeSpec holds the information for a relation between two nodes.
// The owning side of the foreign key carries Columns; M2M edges carry
// the join table and its two key columns (own side first).
type EdgeSpec struct {
	Rel     Rel
	Inverse bool
	Table   string
	Columns []string
	Schema  string
}

type graphEdge struct {
	*EdgeSpec
	to *Node
}

// Schema is the relational description the evaluator operates on.
type Schema struct {
	Nodes []*Node
}

func (g *Schema) node(typ string) (*Node, error) {
	for _, n := range g.Nodes {
		if n.Type == typ {
			return n, nil
		}
	}
	return nil, fmt.Errorf("sqlgraph: node type %q was not found", typ)
}

// AddE adds an edge named name from the node type from to the node
// type to. Both endpoints must exist in the schema.
func (g *Schema) AddE(name string, spec *EdgeSpec, from, to string) error {
	fn, err := g.node(from)
	if err != nil {
		return err
	}
	tn, err := g.node(to)
	if err != nil {
		return err
	}
	if fn.edges == nil {
		fn.edges = make(map[string]graphEdge)
	}
	if _, ok := fn.edges[name]; ok {
		return fmt.Errorf("sqlgraph: edge %q already exists on node %q", name, from)
	}
	fn.edges[name] = graphEdge{EdgeSpec: spec, to: tn}
	return nil
}

// WrapFunc wraps a selector-mutating function as a querylanguage
// predicate, letting callers mix raw SQL refinement into has_edge
// filters.
type WrapFunc func(*sql.Selector)

// String renders an opaque placeholder; the function body is not
// representable in the expression language.
func (WrapFunc) String() string { return "selector_func()" }

// Negate returns the function unchanged; negation is expressed by the
// wrapped selector logic itself.
func (f WrapFunc) Negate() querylanguage.P { return f }

// EvalP evaluates the predicate p of the given node type onto the
// selector: the compiled SQL predicate is AND-ed into its WHERE clause.
func (g *Schema) EvalP(nodeType string, p querylanguage.P, s *sql.Selector) error {
	n, err := g.node(nodeType)
	if err != nil {
		return err
	}
	ev := evaluator{graph: g, node: n, sel: s, base: s}
	pred, err := ev.eval(p)
	if err != nil {
		return err
	}
	if pred != nil {
		s.Where(pred)
	}
	return nil
}

// columnRef resolves an unqualified column to its qualified, quoted
// form. Implemented by *sql.Selector and *sql.SelectTable.
type columnRef interface {
	C(string) string
}

type evaluator struct {
	graph *Schema
	node  *Node
	sel   *sql.Selector
	base  columnRef
}

func (e evaluator) eval(p querylanguage.P) (*sql.Predicate, error) {
	switch x := p.(type) {
	case *querylanguage.BinaryExpr:
		return e.evalBinary(x)
	case *querylanguage.UnaryExpr:
		inner, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		return sql.Not(inner), nil
	case *querylanguage.NaryExpr:
		preds := make([]*sql.Predicate, 0, len(x.Xs))
		for _, t := range x.Xs {
			p, err := e.eval(t)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		if x.Op == "||" {
			return sql.Or(preds...), nil
		}
		return sql.And(preds...), nil
	case *querylanguage.CallExpr:
		return e.evalCall(x)
	case *querylanguage.EdgeExpr:
		return e.evalEdge(x)
	case WrapFunc:
		x(e.sel)
		return nil, nil
	default:
		return nil, fmt.Errorf("sqlgraph: unexpected predicate type %T", p)
	}
}

func (e evaluator) column(name string) (string, error) {
	if f, ok := e.node.Fields[name]; ok {
		return e.base.C(f.Column), nil
	}
	if e.node.ID != nil && name == e.node.ID.Column {
		return e.base.C(e.node.ID.Column), nil
	}
	return "", fmt.Errorf("sqlgraph: field %q was not found for node %q", name, e.node.Type)
}

func (e evaluator) evalBinary(x *querylanguage.BinaryExpr) (*sql.Predicate, error) {
	f, ok := x.X.(querylanguage.F)
	if !ok {
		return nil, fmt.Errorf("sqlgraph: left operand of %q must be a field", x.Op)
	}
	col, err := e.column(string(f))
	if err != nil {
		return nil, err
	}
	switch y := x.Y.(type) {
	case querylanguage.F:
		col2, err := e.column(string(y))
		if err != nil {
			return nil, err
		}
		return columnsPred(x.Op, col, col2)
	case querylanguage.Values:
		switch x.Op {
		case "in":
			return sql.In(col, y.Vs...), nil
		case "not in":
			return sql.NotIn(col, y.Vs...), nil
		}
		return nil, fmt.Errorf("sqlgraph: operator %q does not accept a value list", x.Op)
	case querylanguage.Value:
		if y.V == nil {
			switch x.Op {
			case "==":
				return sql.IsNull(col), nil
			case "!=":
				return sql.NotNull(col), nil
			}
			return nil, fmt.Errorf("sqlgraph: operator %q does not accept nil", x.Op)
		}
		return valuePred(x.Op, col, y.V)
	default:
		return nil, fmt.Errorf("sqlgraph: unexpected operand type %T", x.Y)
	}
}

func valuePred(op, col string, v any) (*sql.Predicate, error) {
	switch op {
	case "==":
		return sql.EQ(col, v), nil
	case "!=":
		return sql.NEQ(col, v), nil
	case ">":
		return sql.GT(col, v), nil
	case ">=":
		return sql.GTE(col, v), nil
	case "<":
		return sql.LT(col, v), nil
	case "<=":
		return sql.LTE(col, v), nil
	}
	return nil, fmt.Errorf("sqlgraph: unsupported operator %q", op)
}

func columnsPred(op, col1, col2 string) (*sql.Predicate, error) {
	switch op {
	case "==":
		return sql.ColumnsEQ(col1, col2), nil
	case "!=":
		return sql.ColumnsNEQ(col1, col2), nil
	case ">":
		return sql.ColumnsGT(col1, col2), nil
	case ">=":
		return sql.ColumnsGTE(col1, col2), nil
	case "<":
		return sql.ColumnsLT(col1, col2), nil
	case "<=":
		return sql.ColumnsLTE(col1, col2), nil
	}
	return nil, fmt.Errorf("sqlgraph: unsupported operator %q", op)
}

func (e evaluator) evalCall(x *querylanguage.CallExpr) (*sql.Predicate, error) {
	col, err := e.column(x.Field)
	if err != nil {
		return nil, err
	}
	v, ok := x.V.(string)
	if !ok {
		return nil, fmt.Errorf("sqlgraph: %s expects a string argument", x.Func)
	}
	switch x.Func {
	case querylanguage.FuncContains:
		return sql.Contains(col, v), nil
	case querylanguage.FuncContainsFold:
		return sql.ContainsFold(col, v), nil
	case querylanguage.FuncHasPrefix:
		return sql.HasPrefix(col, v), nil
	case querylanguage.FuncHasSuffix:
		return sql.HasSuffix(col, v), nil
	case querylanguage.FuncEqualFold:
		return sql.EqualFold(col, v), nil
	}
	return nil, fmt.Errorf("sqlgraph: unsupported function %q", x.Func)
}

func (e evaluator) evalEdge(x *querylanguage.EdgeExpr) (*sql.Predicate, error) {
	edge, ok := e.node.edges[x.Edge]
	if !ok {
		return nil, fmt.Errorf("sqlgraph: edge %q was not found for node %q", x.Edge, e.node.Type)
	}
	switch {
	case edge.Rel == M2M:
		return e.evalM2M(edge, x.Filters)
	case edge.Rel == O2M && !edge.Inverse:
		return e.evalFKOnTarget(edge, x.Filters)
	default:
		// M2O, O2O and inverse O2M: the foreign key lives on this
		// node's own table.
		return e.evalFKOnBase(edge, x.Filters)
	}
}

// evalFKOnTarget handles edges whose foreign key column lives on the
// related table: EXISTS over the child rows pointing back at us.
func (e evaluator) evalFKOnTarget(edge graphEdge, filters []querylanguage.P) (*sql.Predicate, error) {
	t := tableFor(edge.Table, edge.Schema, e.sel.Dialect())
	sub := sql.Select(t.C(edge.Columns[0])).From(t)
	sub.SetDialect(e.sel.Dialect())
	ownID, err := e.column(e.node.ID.Column)
	if err != nil {
		return nil, err
	}
	sub.Where(sql.ColumnsEQ(ownID, t.C(edge.Columns[0])))
	if err := e.applyFilters(sub, t, edge.to, filters); err != nil {
		return nil, err
	}
	return sql.Exists(sub), nil
}

// evalFKOnBase handles edges whose foreign key column lives on this
// node's table: EXISTS over the referenced row.
func (e evaluator) evalFKOnBase(edge graphEdge, filters []querylanguage.P) (*sql.Predicate, error) {
	t := tableFor(edge.to.Table, edge.to.Schema, e.sel.Dialect())
	sub := sql.Select(t.C(edge.to.ID.Column)).From(t)
	sub.SetDialect(e.sel.Dialect())
	sub.Where(sql.ColumnsEQ(e.base.C(edge.Columns[0]), t.C(edge.to.ID.Column)))
	if err := e.applyFilters(sub, t, edge.to, filters); err != nil {
		return nil, err
	}
	return sql.Exists(sub), nil
}

// evalM2M handles many-to-many edges through a join table. Without
// filters the membership check needs only the join table; with filters
// the related table is joined in under a fresh alias.
func (e evaluator) evalM2M(edge graphEdge, filters []querylanguage.P) (*sql.Predicate, error) {
	pk1, pk2 := edge.Columns[0], edge.Columns[1]
	if edge.Inverse {
		pk1, pk2 = pk2, pk1
	}
	jt := tableFor(edge.Table, edge.Schema, e.sel.Dialect())
	sub := sql.Select(jt.C(pk1)).From(jt)
	sub.SetDialect(e.sel.Dialect())
	ownID, err := e.column(e.node.ID.Column)
	if err != nil {
		return nil, err
	}
	if len(filters) > 0 {
		to := tableFor(edge.to.Table, edge.to.Schema, e.sel.Dialect()).As(sub.NextAlias())
		sub.Join(to).On(jt.C(pk2), to.C(edge.to.ID.Column))
		if err := e.applyFilters(sub, to, edge.to, filters); err != nil {
			return nil, err
		}
	}
	return sql.In(ownID, sub), nil
}

func (e evaluator) applyFilters(sub *sql.Selector, ref columnRef, to *Node, filters []querylanguage.P) error {
	inner := evaluator{graph: e.graph, node: to, sel: sub, base: ref}
	for _, f := range filters {
		pred, err := inner.eval(f)
		if err != nil {
			return err
		}
		if pred != nil {
			sub.Where(pred)
		}
	}
	return nil
}

func tableFor(name, schema, dialect string) *sql.SelectTable {
	t := sql.Table(name)
	t.SetDialect(dialect)
	if schema != "" {
		t.Schema(schema)
	}
	return t
}

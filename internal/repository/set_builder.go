package repository

import "fmt"

// setBuilder assembles the SET list of a partial UPDATE with positional args.
type setBuilder struct {
	clauses []string
	args    []any
}

func newSetBuilder() *setBuilder {
	return &setBuilder{}
}

func (b *setBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// add appends column = $n when v is a non-nil pointer.
func add[T any](b *setBuilder, column string, v *T) {
	if v == nil {
		return
	}
	b.set(column, *v)
}

func (b *setBuilder) set(column string, v any) {
	b.clauses = append(b.clauses, column+" = "+b.arg(v))
}

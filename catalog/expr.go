/*
	Pictoria
	Copyright (c) 2026 Pictoria Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package catalog

import (
	"database/sql"
	"strconv"
	"strings"
)

// The search WHERE clause is assembled from a small tree of typed
// conditions with a single renderer. Every literal filter value becomes a
// named parameter; nothing user-supplied is ever written into the SQL
// text itself.

// condition is one boolean expression of the compiled query.
type condition interface {
	render(w *sqlWriter)
}

// sqlWriter accumulates the rendered SQL text and the bound parameters.
// Parameters are named p1, p2, ... in binding order.
type sqlWriter struct {
	sb     strings.Builder
	names  []string
	params map[string]any
}

func newSQLWriter() *sqlWriter {
	return &sqlWriter{params: make(map[string]any)}
}

// bind registers v as the next parameter and returns its placeholder.
func (w *sqlWriter) bind(v any) string {
	name := "p" + strconv.Itoa(len(w.names)+1)
	w.names = append(w.names, name)
	w.params[name] = v
	return "@" + name
}

// args returns the bound parameters in binding order, suitable for
// database/sql query execution.
func (w *sqlWriter) args() []any {
	out := make([]any, len(w.names))
	for i, name := range w.names {
		out[i] = sql.Named(name, w.params[name])
	}
	return out
}

// exactMatch compares a column to a literal value.
type exactMatch struct {
	column string
	value  any
	noCase bool
}

func (c exactMatch) render(w *sqlWriter) {
	w.sb.WriteString(c.column)
	w.sb.WriteByte('=')
	w.sb.WriteString(w.bind(c.value))
	if c.noCase {
		w.sb.WriteString(" COLLATE NOCASE")
	}
}

// patternMatch compares a column against a translated LIKE pattern.
type patternMatch struct {
	column  string
	pattern likePattern
}

func (c patternMatch) render(w *sqlWriter) {
	w.sb.WriteString(c.column)
	w.sb.WriteString(" LIKE ")
	w.sb.WriteString(w.bind(c.pattern.Pattern))
	if c.pattern.NeedsEscape {
		w.sb.WriteString(` ESCAPE '\'`)
	}
}

// valueEquals matches a nullable scalar column against one exact value.
// The IS NOT NULL guard keeps unset fields from ever matching.
type valueEquals struct {
	column string
	value  any
}

func (c valueEquals) render(w *sqlWriter) {
	w.sb.WriteByte('(')
	w.sb.WriteString(c.column)
	w.sb.WriteString(" IS NOT NULL AND ")
	w.sb.WriteString(c.column)
	w.sb.WriteByte('=')
	w.sb.WriteString(w.bind(c.value))
	w.sb.WriteByte(')')
}

// rangeBetween matches a nullable scalar column against an inclusive
// [lo, hi] range.
type rangeBetween struct {
	column string
	lo, hi any
}

func (c rangeBetween) render(w *sqlWriter) {
	w.sb.WriteByte('(')
	w.sb.WriteString(c.column)
	w.sb.WriteString(" IS NOT NULL AND ")
	w.sb.WriteString(c.column)
	w.sb.WriteString(" BETWEEN ")
	w.sb.WriteString(w.bind(c.lo))
	w.sb.WriteString(" AND ")
	w.sb.WriteString(w.bind(c.hi))
	w.sb.WriteByte(')')
}

// flagEquals matches a boolean column against a fixed truth value.
type flagEquals struct {
	column string
	value  bool
}

func (c flagEquals) render(w *sqlWriter) {
	w.sb.WriteString(c.column)
	if c.value {
		w.sb.WriteString("=1")
	} else {
		w.sb.WriteString("=0")
	}
}

// existsIn matches images that have at least one row in a child relation
// satisfying the inner condition. The child is probed through its
// image_id key, so the EXISTS stays index-driven.
type existsIn struct {
	table string
	inner condition
}

func (c existsIn) render(w *sqlWriter) {
	w.sb.WriteString("EXISTS (SELECT 1 FROM ")
	w.sb.WriteString(c.table)
	w.sb.WriteString(" AS c WHERE c.image_id=images.id AND (")
	c.inner.render(w)
	w.sb.WriteString("))")
}

// anyOf joins conditions with OR; a match on any of them suffices.
type anyOf []condition

func (c anyOf) render(w *sqlWriter) {
	w.sb.WriteByte('(')
	for i, sub := range c {
		if i > 0 {
			w.sb.WriteString(" OR ")
		}
		sub.render(w)
	}
	w.sb.WriteByte(')')
}

// allOf joins conditions with AND; all of them must match.
type allOf []condition

func (c allOf) render(w *sqlWriter) {
	w.sb.WriteByte('(')
	for i, sub := range c {
		if i > 0 {
			w.sb.WriteString(" AND ")
		}
		sub.render(w)
	}
	w.sb.WriteByte(')')
}

// compiledQuery is the assembled search: per-facet conditions that are
// AND-joined into the WHERE clause, rendered once into parameterized SQL.
type compiledQuery struct {
	conds []condition
}

func (cq *compiledQuery) add(c condition) {
	if c != nil {
		cq.conds = append(cq.conds, c)
	}
}

// build renders the full SELECT with a deterministic ORDER BY on path so
// repeated runs against an unchanged catalog yield identical output.
func (cq *compiledQuery) build(columns string) (string, []any) {
	w := newSQLWriter()
	w.sb.WriteString("SELECT ")
	w.sb.WriteString(columns)
	w.sb.WriteString("\nFROM images")
	for i, c := range cq.conds {
		if i == 0 {
			w.sb.WriteString("\nWHERE ")
		} else {
			w.sb.WriteString("\n\tAND ")
		}
		c.render(w)
	}
	w.sb.WriteString("\nORDER BY images.path")
	return w.sb.String(), w.args()
}

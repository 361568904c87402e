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

import "github.com/zeebo/blake3"

// deduper tracks which image paths have already been emitted during one
// logical search invocation, so repeated facet matches or append-mode
// re-querying never double-emit a path. It stores BLAKE3 digests rather
// than the paths themselves, keeping the set compact on large result
// sets.
//
// It is used by a single goroutine per invocation; no locking.
type deduper struct {
	seen map[[32]byte]struct{}
}

func newDeduper() *deduper {
	return &deduper{seen: make(map[[32]byte]struct{})}
}

// observe records path as emitted and reports whether it had already
// been observed in this invocation.
func (d *deduper) observe(path string) bool {
	sum := blake3.Sum256([]byte(path))
	if _, ok := d.seen[sum]; ok {
		return true
	}
	d.seen[sum] = struct{}{}
	return false
}

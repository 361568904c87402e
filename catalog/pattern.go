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

import "strings"

// likeEscapeChar escapes literal '%', '_', and itself inside translated
// LIKE patterns. Conditions that use such a pattern must carry an
// ESCAPE clause.
const likeEscapeChar = '\\'

// likePattern is a user search token translated to SQL LIKE syntax.
type likePattern struct {
	// The translated pattern. Only meaningful if HasWildcards.
	Pattern string

	// Whether the token contained (or was forced to contain) the user
	// wildcards '*' or '?'. A token without wildcards should be compiled
	// to an exact comparison instead, which is always the fastest path.
	HasWildcards bool

	// A pattern that does not begin with '%' can be satisfied with an
	// index range scan on the column; a leading '%' forces a full scan.
	PrefixOptimizable bool

	// Whether the pattern contains the escape character and therefore
	// needs an ESCAPE clause when rendered.
	NeedsEscape bool
}

// translateWildcards converts a raw search token into a LIKE pattern:
// '*' matches any run of characters and '?' matches a single character.
// Literal pattern metacharacters in the token are escaped first so they
// cannot act as wildcards. With forceWildcards, a token with no wildcards
// of its own is wrapped in '%' on both ends (loose substring matching).
func translateWildcards(token string, forceWildcards bool) likePattern {
	var sb strings.Builder
	sb.Grow(len(token) + 2)

	var hasWildcards, needsEscape bool
	for _, r := range token {
		switch r {
		case '%', '_', likeEscapeChar:
			sb.WriteRune(likeEscapeChar)
			sb.WriteRune(r)
			needsEscape = true
		case '*':
			sb.WriteRune('%')
			hasWildcards = true
		case '?':
			sb.WriteRune('_')
			hasWildcards = true
		default:
			sb.WriteRune(r)
		}
	}

	pattern := sb.String()
	if !hasWildcards {
		if !forceWildcards {
			// exact token; the caller should compare with '='
			return likePattern{Pattern: token, PrefixOptimizable: true}
		}
		pattern = "%" + pattern + "%"
		hasWildcards = true
	}

	return likePattern{
		Pattern:           pattern,
		HasWildcards:      hasWildcards,
		PrefixOptimizable: !strings.HasPrefix(pattern, "%"),
		NeedsEscape:       needsEscape,
	}
}

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
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SearchCriteria describes a catalog search. It is immutable per
// invocation.
//
// Fields with a slice type are facets: the elements within one facet are
// OR'ed together, and distinct facets are AND'ed. String tokens may use
// the wildcards '*' (any run) and '?' (single character); a token without
// wildcards matches exactly.
//
// Numeric and date fields take one element for an exact match or two
// elements for an inclusive [min,max] range.
type SearchCriteria struct {
	DescriptionSearch []string `json:"description_search,omitempty"`
	Keywords          []string `json:"keywords,omitempty"`
	People            []string `json:"people,omitempty"`
	Objects           []string `json:"objects,omitempty"`
	Scenes            []string `json:"scenes,omitempty"`
	PictureType       []string `json:"picture_type,omitempty"`
	StyleType         []string `json:"style_type,omitempty"`
	OverallMood       []string `json:"overall_mood,omitempty"`
	PathLike          []string `json:"path_like,omitempty"`
	CameraMake        []string `json:"camera_make,omitempty"`
	CameraModel       []string `json:"camera_model,omitempty"`

	GPSLatitude  []float64   `json:"gps_latitude,omitempty"`
	GPSLongitude []float64   `json:"gps_longitude,omitempty"`
	GPSAltitude  []float64   `json:"gps_altitude,omitempty"`
	ExposureTime []float64   `json:"exposure_time,omitempty"`
	FNumber      []float64   `json:"f_number,omitempty"`
	ISO          []int64     `json:"iso,omitempty"`
	FocalLength  []float64   `json:"focal_length,omitempty"`
	Width        []int64     `json:"width,omitempty"`
	Height       []int64     `json:"height,omitempty"`
	DateTaken    []time.Time `json:"date_taken,omitempty"`

	// Tri-state content flags: the Has/No pair for one concept is
	// mutually exclusive, and both absent means "don't care".
	HasNudity          bool `json:"has_nudity,omitempty"`
	NoNudity           bool `json:"no_nudity,omitempty"`
	HasExplicitContent bool `json:"has_explicit_content,omitempty"`
	NoExplicitContent  bool `json:"no_explicit_content,omitempty"`

	// Restrict results to a circle around a point.
	Location *GeoCircle `json:"location,omitempty"`

	// Free-text search: each token is matched loosely against every
	// searchable column and child relation at once.
	Any []string `json:"any,omitempty"`

	// Minimum confidence (0..1) a face/object/scene detection must have
	// to survive in the results. Nil means no filtering at all, which is
	// distinct from a threshold of 0.
	MinConfidenceRatio *float64 `json:"min_confidence_ratio,omitempty"`
}

// child relations of the images table
const (
	tableKeywords = "image_keywords"
	tablePeople   = "image_people"
	tableObjects  = "image_objects"
	tableScenes   = "image_scenes"
)

// columns the free-text Any facet spans, together with every child
// relation
var anySearchColumns = []string{
	"images.path",
	"images.file_name",
	"images.short_description",
	"images.long_description",
	"images.picture_type",
	"images.overall_mood",
	"images.style_type",
	"images.camera_make",
	"images.camera_model",
	"images.artist",
	"images.software",
}

var childSearchColumns = []struct {
	table  string
	column string
}{
	{tableKeywords, "c.keyword"},
	{tablePeople, "c.person"},
	{tableObjects, "c.label"},
	{tableScenes, "c.label"},
}

// ErrInvalidCriteria wraps every criteria validation failure, so callers
// can tell a malformed request apart from an execution failure.
var ErrInvalidCriteria = errors.New("invalid search criteria")

func (sc SearchCriteria) validate() error {
	if sc.HasNudity && sc.NoNudity {
		return fmt.Errorf("%w: has_nudity and no_nudity are mutually exclusive", ErrInvalidCriteria)
	}
	if sc.HasExplicitContent && sc.NoExplicitContent {
		return fmt.Errorf("%w: has_explicit_content and no_explicit_content are mutually exclusive", ErrInvalidCriteria)
	}

	ranges := []struct {
		name string
		n    int
	}{
		{"gps_latitude", len(sc.GPSLatitude)},
		{"gps_longitude", len(sc.GPSLongitude)},
		{"gps_altitude", len(sc.GPSAltitude)},
		{"exposure_time", len(sc.ExposureTime)},
		{"f_number", len(sc.FNumber)},
		{"iso", len(sc.ISO)},
		{"focal_length", len(sc.FocalLength)},
		{"width", len(sc.Width)},
		{"height", len(sc.Height)},
		{"date_taken", len(sc.DateTaken)},
	}
	for _, r := range ranges {
		if r.n > 2 {
			return fmt.Errorf("%w: %s takes one exact value or a [min,max] pair, got %d values", ErrInvalidCriteria, r.name, r.n)
		}
	}

	if sc.MinConfidenceRatio != nil {
		if t := *sc.MinConfidenceRatio; t < 0 || t > 1 {
			return fmt.Errorf("%w: min_confidence_ratio must be within [0,1], got %v", ErrInvalidCriteria, t)
		}
	}

	if loc := sc.Location; loc != nil {
		if loc.MaxDistanceMeters <= 0 {
			return fmt.Errorf("%w: location max_distance_meters must be positive, got %v", ErrInvalidCriteria, loc.MaxDistanceMeters)
		}
		if loc.Latitude < -90 || loc.Latitude > 90 {
			return fmt.Errorf("%w: location latitude out of range: %v", ErrInvalidCriteria, loc.Latitude)
		}
		if loc.Longitude < -180 || loc.Longitude > 180 {
			return fmt.Errorf("%w: location longitude out of range: %v", ErrInvalidCriteria, loc.Longitude)
		}
	}

	return nil
}

// compile turns the criteria into the parameterized query tree. The
// criteria must have been validated.
func (sc SearchCriteria) compile() *compiledQuery {
	cq := new(compiledQuery)

	// description matches either the short or the long text
	cq.add(columnsFacet([]string{"images.short_description", "images.long_description"}, sc.DescriptionSearch, true, false))

	cq.add(childFacet(tableKeywords, "c.keyword", sc.Keywords))
	cq.add(childFacet(tablePeople, "c.person", sc.People))
	cq.add(childFacet(tableObjects, "c.label", sc.Objects))
	cq.add(childFacet(tableScenes, "c.label", sc.Scenes))

	cq.add(columnFacet("images.picture_type", sc.PictureType, true, false))
	cq.add(columnFacet("images.style_type", sc.StyleType, true, false))
	cq.add(columnFacet("images.overall_mood", sc.OverallMood, true, false))
	cq.add(columnFacet("images.camera_make", sc.CameraMake, true, false))
	cq.add(columnFacet("images.camera_model", sc.CameraModel, true, false))

	cq.add(pathFacet(sc.PathLike))

	cq.add(scalarFacet("images.gps_latitude", sc.GPSLatitude))
	cq.add(scalarFacet("images.gps_longitude", sc.GPSLongitude))
	cq.add(scalarFacet("images.gps_altitude", sc.GPSAltitude))
	cq.add(scalarFacet("images.exposure_time", sc.ExposureTime))
	cq.add(scalarFacet("images.f_number", sc.FNumber))
	cq.add(scalarFacet("images.iso", sc.ISO))
	cq.add(scalarFacet("images.focal_length", sc.FocalLength))
	cq.add(scalarFacet("images.width", sc.Width))
	cq.add(scalarFacet("images.height", sc.Height))
	cq.add(dateFacet("images.date_taken", sc.DateTaken))

	if sc.HasNudity {
		cq.add(flagEquals{"images.has_nudity", true})
	}
	if sc.NoNudity {
		cq.add(flagEquals{"images.has_nudity", false})
	}
	if sc.HasExplicitContent {
		cq.add(flagEquals{"images.has_explicit_content", true})
	}
	if sc.NoExplicitContent {
		cq.add(flagEquals{"images.has_explicit_content", false})
	}

	if loc := sc.Location; loc != nil {
		cq.add(geoWithin{
			lat:   loc.Latitude,
			lon:   loc.Longitude,
			maxKm: loc.MaxDistanceMeters / 1000,
		})
	}

	if len(sc.Any) > 0 {
		group := make(anyOf, 0, len(sc.Any))
		for _, tok := range sc.Any {
			group = append(group, anyTokenCondition(tok))
		}
		cq.add(group)
	}

	return cq
}

// hasDetectionFacets reports whether any of the detection facets
// (people/objects/scenes) are active.
func (sc SearchCriteria) hasDetectionFacets() bool {
	return len(sc.People) > 0 || len(sc.Objects) > 0 || len(sc.Scenes) > 0
}

// detectionFacetsOnly reports whether detection facets are the only
// active facets. When that is the case and the confidence filter strips
// every qualifying detection from a record, the record has nothing left
// that matched and is dropped.
func (sc SearchCriteria) detectionFacetsOnly() bool {
	if !sc.hasDetectionFacets() {
		return false
	}
	other := len(sc.DescriptionSearch) + len(sc.Keywords) + len(sc.PictureType) +
		len(sc.StyleType) + len(sc.OverallMood) + len(sc.PathLike) +
		len(sc.CameraMake) + len(sc.CameraModel) +
		len(sc.GPSLatitude) + len(sc.GPSLongitude) + len(sc.GPSAltitude) +
		len(sc.ExposureTime) + len(sc.FNumber) + len(sc.ISO) + len(sc.FocalLength) +
		len(sc.Width) + len(sc.Height) + len(sc.DateTaken) + len(sc.Any)
	if other > 0 {
		return false
	}
	if sc.HasNudity || sc.NoNudity || sc.HasExplicitContent || sc.NoExplicitContent {
		return false
	}
	return sc.Location == nil
}

// tokenCondition compiles one facet token against one column: exact
// comparison for wildcard-free tokens, LIKE otherwise.
func tokenCondition(column, token string, noCase, forceWildcards bool) condition {
	lp := translateWildcards(token, forceWildcards)
	if !lp.HasWildcards {
		return exactMatch{column: column, value: token, noCase: noCase}
	}
	return patternMatch{column: column, pattern: lp}
}

func columnFacet(column string, tokens []string, noCase, forceWildcards bool) condition {
	if len(tokens) == 0 {
		return nil
	}
	group := make(anyOf, 0, len(tokens))
	for _, tok := range tokens {
		group = append(group, tokenCondition(column, tok, noCase, forceWildcards))
	}
	return group
}

func columnsFacet(columns []string, tokens []string, noCase, forceWildcards bool) condition {
	if len(tokens) == 0 {
		return nil
	}
	group := make(anyOf, 0, len(tokens)*len(columns))
	for _, tok := range tokens {
		for _, col := range columns {
			group = append(group, tokenCondition(col, tok, noCase, forceWildcards))
		}
	}
	return group
}

func childFacet(table, column string, tokens []string) condition {
	if len(tokens) == 0 {
		return nil
	}
	return existsIn{
		table: table,
		inner: columnFacet(column, tokens, true, false).(anyOf),
	}
}

// pathFacet matches the image path loosely. Tokens in file: URI form are
// reduced to plain paths before translation.
func pathFacet(tokens []string) condition {
	if len(tokens) == 0 {
		return nil
	}
	group := make(anyOf, 0, len(tokens))
	for _, tok := range tokens {
		group = append(group, tokenCondition("images.path", normalizePathToken(tok), true, true))
	}
	return group
}

func normalizePathToken(tok string) string {
	trimmed := strings.TrimPrefix(tok, "file://")
	trimmed = strings.TrimPrefix(trimmed, "file:")
	if decoded, err := url.PathUnescape(trimmed); err == nil {
		return decoded
	}
	return trimmed
}

func scalarFacet[T int64 | float64](column string, vals []T) condition {
	switch len(vals) {
	case 1:
		return valueEquals{column: column, value: vals[0]}
	case 2:
		lo, hi := vals[0], vals[1]
		if hi < lo {
			lo, hi = hi, lo
		}
		return rangeBetween{column: column, lo: lo, hi: hi}
	default:
		return nil
	}
}

// dateFacet compiles a taken-date constraint against the unix-millisecond
// timestamp column. A date-only value (midnight, no sub-day component)
// covers its whole day.
func dateFacet(column string, vals []time.Time) condition {
	switch len(vals) {
	case 1:
		d := vals[0]
		if isDateOnly(d) {
			return rangeBetween{column: column, lo: d.UnixMilli(), hi: endOfDayMilli(d)}
		}
		return valueEquals{column: column, value: d.UnixMilli()}
	case 2:
		lo, hi := vals[0], vals[1]
		if hi.Before(lo) {
			lo, hi = hi, lo
		}
		hiMilli := hi.UnixMilli()
		if isDateOnly(hi) {
			hiMilli = endOfDayMilli(hi)
		}
		return rangeBetween{column: column, lo: lo.UnixMilli(), hi: hiMilli}
	default:
		return nil
	}
}

func isDateOnly(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func endOfDayMilli(t time.Time) int64 {
	return t.Add(24*time.Hour).UnixMilli() - 1
}

// anyTokenCondition spans one free-text token across every searchable
// column and child relation at once. The token is bound as a parameter
// like any other facet value.
func anyTokenCondition(token string) condition {
	lp := translateWildcards(token, true)
	group := make(anyOf, 0, len(anySearchColumns)+len(childSearchColumns))
	for _, col := range anySearchColumns {
		group = append(group, patternMatch{column: col, pattern: lp})
	}
	for _, child := range childSearchColumns {
		group = append(group, existsIn{
			table: child.table,
			inner: patternMatch{column: child.column, pattern: lp},
		})
	}
	return group
}

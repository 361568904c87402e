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
	"context"
	"fmt"
	"sort"

	"github.com/maruel/natural"
)

// Facet names an enumerable filter dimension whose distinct values can
// be listed, for discoverability in callers (autocomplete, CLI listings).
type Facet string

const (
	FacetCameraMake  Facet = "camera_make"
	FacetCameraModel Facet = "camera_model"
	FacetPictureType Facet = "picture_type"
	FacetOverallMood Facet = "overall_mood"
	FacetStyleType   Facet = "style_type"
	FacetKeyword     Facet = "keyword"
	FacetPerson      Facet = "person"
	FacetObject      Facet = "object"
	FacetScene       Facet = "scene"
)

var facetValueQueries = map[Facet]string{
	FacetCameraMake:  `SELECT DISTINCT camera_make FROM images WHERE camera_make IS NOT NULL`,
	FacetCameraModel: `SELECT DISTINCT camera_model FROM images WHERE camera_model IS NOT NULL`,
	FacetPictureType: `SELECT DISTINCT picture_type FROM images WHERE picture_type IS NOT NULL`,
	FacetOverallMood: `SELECT DISTINCT overall_mood FROM images WHERE overall_mood IS NOT NULL`,
	FacetStyleType:   `SELECT DISTINCT style_type FROM images WHERE style_type IS NOT NULL`,
	FacetKeyword:     `SELECT DISTINCT keyword FROM image_keywords`,
	FacetPerson:      `SELECT DISTINCT person FROM image_people`,
	FacetObject:      `SELECT DISTINCT label FROM image_objects`,
	FacetScene:       `SELECT DISTINCT label FROM image_scenes`,
}

// FacetValues returns the distinct values of an enumerable facet in
// natural sort order ("Canon EOS 100D" before "Canon EOS 5D" would annoy
// a human).
func (c *Catalog) FacetValues(ctx context.Context, facet Facet) ([]string, error) {
	q, ok := facetValueQueries[facet]
	if !ok {
		return nil, fmt.Errorf("unknown facet: %s", facet)
	}

	c.dbMu.RLock()
	defer c.dbMu.RUnlock()

	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying %s values: %w", facet, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s value: %w", facet, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(values, func(i, j int) bool { return natural.Less(values[i], values[j]) })
	return values, nil
}

// CatalogStats summarizes the catalog's contents.
type CatalogStats struct {
	Images        int64          `json:"images"`
	TotalFileSize int64          `json:"total_file_size"`
	ObjectCounts  map[string]int `json:"object_counts,omitempty"`
}

// Stats reports the image count, the summed file sizes, and the most
// frequently detected object labels.
func (c *Catalog) Stats(ctx context.Context) (CatalogStats, error) {
	c.dbMu.RLock()
	defer c.dbMu.RUnlock()

	var stats CatalogStats

	err := c.db.QueryRowContext(ctx, `SELECT count(), COALESCE(SUM(file_size), 0) FROM images`).
		Scan(&stats.Images, &stats.TotalFileSize)
	if err != nil {
		return CatalogStats{}, fmt.Errorf("counting images: %w", err)
	}

	const topLabels = 10
	rows, err := c.db.QueryContext(ctx, `
		SELECT label, count() AS cnt
		FROM image_objects
		GROUP BY label
		ORDER BY cnt DESC
		LIMIT ?`, topLabels)
	if err != nil {
		return CatalogStats{}, fmt.Errorf("counting object labels: %w", err)
	}
	defer rows.Close()

	stats.ObjectCounts = make(map[string]int)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return CatalogStats{}, fmt.Errorf("scanning object label count: %w", err)
		}
		stats.ObjectCounts[label] = count
	}
	if err := rows.Err(); err != nil {
		return CatalogStats{}, err
	}

	return stats, nil
}

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
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SearchOptions adjust how results are produced, independently of what
// is matched.
type SearchOptions struct {
	// Replace each record's Path with a base64 data URI when the catalog
	// holds the image bytes.
	EmbedImages bool `json:"embed_images,omitempty"`

	// Records carried over from a prior pass. They are emitted first and
	// seed the dedup set, so the query's own results never duplicate
	// them.
	Append []*ImageRecord `json:"append,omitempty"`
}

// SearchResults is the materialized form of a search.
type SearchResults struct {
	Records []*ImageRecord `json:"records"`
	Total   int            `json:"total"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Search runs the query and materializes every result in memory, for
// callers that need the whole result set (or its count) before producing
// output. Zero matches is not an error; the result simply holds no
// records.
func (c *Catalog) Search(ctx context.Context, criteria SearchCriteria, opts SearchOptions) (SearchResults, error) {
	start := time.Now()

	records := make([]*ImageRecord, 0)
	err := c.SearchStream(ctx, criteria, opts, func(rec *ImageRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return SearchResults{}, err
	}

	return SearchResults{
		Records: records,
		Total:   len(records),
		Elapsed: time.Since(start),
	}, nil
}

// SearchStream runs the query and hands each result to yield as its row
// arrives from the cursor, buffering nothing. A non-nil error from yield
// stops the search and is returned as-is.
//
// The search is synchronous and holds a read lock on the catalog for its
// duration; cancel through ctx.
func (c *Catalog) SearchStream(ctx context.Context, criteria SearchCriteria, opts SearchOptions, yield func(*ImageRecord) error) error {
	if err := criteria.validate(); err != nil {
		return err
	}

	q, args := criteria.compile().build(imageDBColumns)

	searchID := uuid.New()
	logger := Log.Named("search").With(zap.String("search_id", searchID.String()))
	logger.Debug("compiled query",
		zap.String("sql", q),
		zap.Int("params", len(args)),
		zap.Int("appended", len(opts.Append)))

	dedup := newDeduper()

	// carried-over records go out first and claim their paths
	for _, rec := range opts.Append {
		if dedup.observe(rec.Path) {
			continue
		}
		if err := yield(rec); err != nil {
			return err
		}
	}

	c.dbMu.RLock()
	defer c.dbMu.RUnlock()

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("querying catalog for images: %w", err)
	}
	defer rows.Close()

	var emitted, dropped int
	for rows.Next() {
		ir, err := scanImageRow(rows)
		if err != nil {
			return err
		}
		rec := ir.record(opts.EmbedImages)

		if criteria.MinConfidenceRatio != nil {
			qualifies := applyConfidenceFloor(rec, *criteria.MinConfidenceRatio)
			if !qualifies && criteria.detectionFacetsOnly() {
				// the only thing this image matched on was filtered away
				dropped++
				continue
			}
		}

		if dedup.observe(rec.Path) {
			continue
		}

		if err := yield(rec); err != nil {
			return err
		}
		emitted++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating image rows: %w", err)
	}

	logger.Debug("search finished",
		zap.Int("emitted", emitted),
		zap.Int("below_confidence", dropped))

	return nil
}

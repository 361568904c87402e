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

// Package app glues the catalog search core to the outside world: a JSON
// HTTP API and the configuration it runs with. It renders nothing;
// galleries and other presentations are some other program's concern.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/pictoria/pictoria/catalog"
	"go.uber.org/zap"
)

// App is the running application: an opened catalog plus the API server
// configuration.
type App struct {
	cfg     *Config
	catalog *catalog.Catalog
	log     *zap.Logger
}

// New opens the configured catalog and returns the application.
func New(ctx context.Context, cfg *Config) (*App, error) {
	dbPath := cfg.dbPath()
	if dbPath == "" {
		return nil, errors.New("no catalog database configured (set db_path or PICTORIA_DB)")
	}

	cat, err := catalog.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:     cfg,
		catalog: cat,
		log:     catalog.Log.Named("app"),
	}, nil
}

// Catalog exposes the opened catalog to in-process callers (the CLI).
func (a *App) Catalog() *catalog.Catalog { return a.catalog }

// Close closes the catalog.
func (a *App) Close() error { return a.catalog.Close() }

// Serve runs the JSON API until the server fails or ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.cfg.listenAddr(),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	a.log.Info("serving API", zap.String("listen", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving API: %w", err)
	}
	return nil
}

// Router assembles the API routes.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Post("/api/search", a.handleSearch)
	r.Post("/api/search/stream", a.handleSearchStream)
	r.Get("/api/facets/{facet}", a.handleFacetValues)
	r.Get("/api/stats", a.handleStats)
	r.Get("/api/health", a.handleHealth)

	return r
}

// searchRequest is the body of the search endpoints.
type searchRequest struct {
	Criteria    catalog.SearchCriteria `json:"criteria"`
	EmbedImages *bool                  `json:"embed_images,omitempty"` // overrides the configured default
}

func (a *App) searchOptions(req searchRequest) catalog.SearchOptions {
	embed := a.cfg.embedImages()
	if req.EmbedImages != nil {
		embed = *req.EmbedImages
	}
	return catalog.SearchOptions{EmbedImages: embed}
}

func (a *App) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	results, err := a.catalog.Search(r.Context(), req.Criteria, a.searchOptions(req))
	if err != nil {
		a.writeSearchError(w, err)
		return
	}

	writeJSON(w, searchResponse{
		Results:   results.Records,
		Total:     results.Total,
		ElapsedMS: results.Elapsed.Milliseconds(),
		Language:  a.cfg.language(),
	})
}

type searchResponse struct {
	Results   []*catalog.ImageRecord `json:"results"`
	Total     int                    `json:"total"`
	ElapsedMS int64                  `json:"elapsed_ms"`
	Language  string                 `json:"language,omitempty"`
}

// handleSearchStream emits newline-delimited JSON, one record per line,
// flushing as rows arrive, for clients that pipe results onward.
func (a *App) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	var started bool
	err := a.catalog.SearchStream(r.Context(), req.Criteria, a.searchOptions(req), func(rec *catalog.ImageRecord) error {
		started = true
		if err := enc.Encode(rec); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil && !started {
		a.writeSearchError(w, err)
		return
	}
	if err != nil {
		// headers are gone; all we can do is cut the stream short
		a.log.Error("search stream aborted", zap.Error(err))
	}
}

func (a *App) handleFacetValues(w http.ResponseWriter, r *http.Request) {
	facet := catalog.Facet(chi.URLParam(r, "facet"))
	values, err := a.catalog.FacetValues(r.Context(), facet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"facet": facet, "values": values})
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.catalog.Stats(r.Context())
	if err != nil {
		a.log.Error("stats failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (a *App) writeSearchError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrInvalidCriteria) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.log.Error("search failed", zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

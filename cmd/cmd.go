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

// Package picmd facilitates the command line interface (CLI)
// and implements the main().
package picmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/pictoria/pictoria/app"
	"github.com/pictoria/pictoria/catalog"
	"go.uber.org/zap"
)

func Main() {
	configPath := flag.String("config", "pictoria.json", "path of the config file")
	dbPath := flag.String("db", "", "catalog database path (overrides config)")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		catalog.Log.Fatal("failed loading config", zap.Error(err))
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	subcommand := flag.Arg(0)
	if subcommand == "" {
		subcommand = "serve"
	}
	var subArgs []string
	if flag.NArg() > 1 {
		subArgs = flag.Args()[1:]
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		catalog.Log.Fatal("failed to open catalog", zap.Error(err))
	}
	defer a.Close()

	if err := runSubcommand(ctx, a, subcommand, subArgs); err != nil {
		catalog.Log.Fatal("subcommand failed",
			zap.String("subcommand", subcommand),
			zap.Error(err))
	}
}

func runSubcommand(ctx context.Context, a *app.App, subcommand string, args []string) error {
	switch subcommand {
	case "serve":
		return a.Serve(ctx)
	case "search":
		return runSearch(ctx, a, args)
	case "facets":
		return runFacets(ctx, a, args)
	case "stats":
		return runStats(ctx, a)
	case "fake":
		return runFake(ctx, a, args)
	default:
		return fmt.Errorf("unknown subcommand: %s (expected serve, search, facets, stats, or fake)", subcommand)
	}
}

// runSearch reads criteria as JSON and streams matching records to
// stdout as newline-delimited JSON, so results can be piped onward.
func runSearch(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	criteriaJSON := fs.String("criteria", "", "search criteria as JSON (default: read from stdin)")
	embed := fs.Bool("embed", false, "replace paths with base64 data URIs where image bytes are stored")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var criteria catalog.SearchCriteria
	if *criteriaJSON != "" {
		if err := json.Unmarshal([]byte(*criteriaJSON), &criteria); err != nil {
			return fmt.Errorf("decoding criteria: %w", err)
		}
	} else {
		if err := json.NewDecoder(os.Stdin).Decode(&criteria); err != nil {
			return fmt.Errorf("decoding criteria from stdin: %w", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	var count int
	err := a.Catalog().SearchStream(ctx, criteria, catalog.SearchOptions{EmbedImages: *embed},
		func(rec *catalog.ImageRecord) error {
			count++
			return enc.Encode(rec)
		})
	if err != nil {
		return err
	}

	catalog.Log.Info("search finished", zap.Int("results", count))
	return nil
}

func runFacets(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("facets", flag.ContinueOnError)
	facet := fs.String("facet", string(catalog.FacetKeyword), "facet to enumerate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	values, err := a.Catalog().FacetValues(ctx, catalog.Facet(*facet))
	if err != nil {
		return err
	}
	for _, v := range values {
		fmt.Println(v)
	}
	return nil
}

func runStats(ctx context.Context, a *app.App) error {
	stats, err := a.Catalog().Stats(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "\t")
	return enc.Encode(stats)
}

func runFake(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("fake", flag.ContinueOnError)
	numImages := fs.Int("images", 500, "how many fake images to index")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.Catalog().PopulateWithFakeData(ctx, *numImages)
}

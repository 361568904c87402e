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
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

// testImage is one catalog fixture row; zero fields stay NULL.
type testImage struct {
	path       string
	keywords   []string
	people     []string
	objects    []string
	scenes     []string
	hasNudity  *bool
	lat, lon   *float64
	cameraMake string
	scenesJSON string
	peopleJSON string
	imageData  []byte
}

func newTestCatalog(t *testing.T, images ...testImage) *Catalog {
	t.Helper()
	ctx := context.Background()

	c, err := Open(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("opening test catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if err := c.Provision(ctx); err != nil {
		t.Fatalf("provisioning test catalog: %v", err)
	}

	for _, img := range images {
		insertTestImage(t, c, img)
	}
	return c
}

func insertTestImage(t *testing.T, c *Catalog, img testImage) {
	t.Helper()
	ctx := context.Background()

	var cameraMake, scenesJSON, peopleJSON *string
	if img.cameraMake != "" {
		cameraMake = &img.cameraMake
	}
	if img.scenesJSON != "" {
		scenesJSON = &img.scenesJSON
	}
	if img.peopleJSON != "" {
		peopleJSON = &img.peopleJSON
	}

	res, err := c.db.ExecContext(ctx, `INSERT INTO images
		(path, has_nudity, gps_latitude, gps_longitude, camera_make, scenes, people, image_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		img.path, img.hasNudity, img.lat, img.lon, cameraMake, scenesJSON, peopleJSON, img.imageData)
	if err != nil {
		t.Fatalf("inserting fixture image %s: %v", img.path, err)
	}
	imageID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("fixture image ID: %v", err)
	}

	for _, kw := range img.keywords {
		if _, err := c.db.ExecContext(ctx,
			`INSERT INTO image_keywords (image_id, keyword) VALUES (?, ?)`, imageID, kw); err != nil {
			t.Fatalf("inserting fixture keyword: %v", err)
		}
	}
	for _, p := range img.people {
		if _, err := c.db.ExecContext(ctx,
			`INSERT INTO image_people (image_id, person) VALUES (?, ?)`, imageID, p); err != nil {
			t.Fatalf("inserting fixture person: %v", err)
		}
	}
	for _, o := range img.objects {
		if _, err := c.db.ExecContext(ctx,
			`INSERT INTO image_objects (image_id, label) VALUES (?, ?)`, imageID, o); err != nil {
			t.Fatalf("inserting fixture object: %v", err)
		}
	}
	for _, s := range img.scenes {
		if _, err := c.db.ExecContext(ctx,
			`INSERT INTO image_scenes (image_id, label) VALUES (?, ?)`, imageID, s); err != nil {
			t.Fatalf("inserting fixture scene: %v", err)
		}
	}
}

func searchPaths(t *testing.T, c *Catalog, criteria SearchCriteria) []string {
	t.Helper()
	results, err := c.Search(context.Background(), criteria, SearchOptions{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	paths := make([]string, 0, len(results.Records))
	for _, rec := range results.Records {
		paths = append(paths, rec.Path)
	}
	return paths
}

func TestSearchFacets(t *testing.T) {
	c := newTestCatalog(t,
		testImage{path: "/photos/a.jpg", keywords: []string{"sunset"}, hasNudity: ptrTo(false), cameraMake: "Canon"},
		testImage{path: "/photos/b.jpg", keywords: []string{"sunset"}, hasNudity: ptrTo(true)},
		testImage{path: "/photos/c.jpg", keywords: []string{"sunset", "beach"}, hasNudity: ptrTo(false), objects: []string{"dog"}},
		testImage{path: "/photos/d.jpg", keywords: []string{"beach"}, hasNudity: ptrTo(false)},
		testImage{path: "/photos/e.jpg", people: []string{"alice"}},
	)

	for i, tc := range []struct {
		criteria SearchCriteria
		expect   []string
	}{
		{
			// tokens of one facet are a union
			criteria: SearchCriteria{Keywords: []string{"sunset", "beach"}},
			expect:   []string{"/photos/a.jpg", "/photos/b.jpg", "/photos/c.jpg", "/photos/d.jpg"},
		},
		{
			// distinct facets intersect
			criteria: SearchCriteria{Keywords: []string{"sunset"}, NoNudity: true},
			expect:   []string{"/photos/a.jpg", "/photos/c.jpg"},
		},
		{
			criteria: SearchCriteria{Keywords: []string{"sunset"}, Objects: []string{"dog"}},
			expect:   []string{"/photos/c.jpg"},
		},
		{
			criteria: SearchCriteria{Keywords: []string{"sunset"}, HasNudity: true},
			expect:   []string{"/photos/b.jpg"},
		},
		{
			// keywords match case-insensitively
			criteria: SearchCriteria{Keywords: []string{"SUNSET"}, NoNudity: true},
			expect:   []string{"/photos/a.jpg", "/photos/c.jpg"},
		},
		{
			criteria: SearchCriteria{Keywords: []string{"sun*"}},
			expect:   []string{"/photos/a.jpg", "/photos/b.jpg", "/photos/c.jpg"},
		},
		{
			criteria: SearchCriteria{People: []string{"alice"}},
			expect:   []string{"/photos/e.jpg"},
		},
		{
			criteria: SearchCriteria{CameraMake: []string{"Canon"}},
			expect:   []string{"/photos/a.jpg"},
		},
		{
			criteria: SearchCriteria{Keywords: []string{"nosuchkeyword"}},
			expect:   []string{},
		},
		{
			// empty criteria match the whole catalog, ordered by path
			criteria: SearchCriteria{},
			expect:   []string{"/photos/a.jpg", "/photos/b.jpg", "/photos/c.jpg", "/photos/d.jpg", "/photos/e.jpg"},
		},
		{
			criteria: SearchCriteria{Any: []string{"alic"}},
			expect:   []string{"/photos/e.jpg"},
		},
		{
			criteria: SearchCriteria{PathLike: []string{"/photos/a"}},
			expect:   []string{"/photos/a.jpg"},
		},
	} {
		actual := searchPaths(t, c, tc.criteria)
		if !reflect.DeepEqual(actual, tc.expect) {
			t.Errorf("Test %d: Expected %v, got %v (criteria=%+v)", i, tc.expect, actual, tc.criteria)
		}
	}
}

func TestSearchInvalidCriteria(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.Search(context.Background(), SearchCriteria{HasNudity: true, NoNudity: true}, SearchOptions{})
	if !errors.Is(err, ErrInvalidCriteria) {
		t.Errorf("expected ErrInvalidCriteria, got %v", err)
	}
}

func TestSearchGeoContainment(t *testing.T) {
	c := newTestCatalog(t,
		// Munich city center
		testImage{path: "/photos/marienplatz.jpg", lat: ptrTo(48.1374), lon: ptrTo(11.5755)},
		// ~2.7 km away, inside a 5 km circle
		testImage{path: "/photos/maxvorstadt.jpg", lat: ptrTo(48.150), lon: ptrTo(11.545)},
		// Berlin, far outside
		testImage{path: "/photos/berlin.jpg", lat: ptrTo(52.5186), lon: ptrTo(13.4083)},
		// no coordinates at all
		testImage{path: "/photos/nogps.jpg"},
	)

	actual := searchPaths(t, c, SearchCriteria{
		Location: &GeoCircle{Latitude: 48.1372, Longitude: 11.5756, MaxDistanceMeters: 5000},
	})
	expect := []string{"/photos/marienplatz.jpg", "/photos/maxvorstadt.jpg"}
	if !reflect.DeepEqual(actual, expect) {
		t.Errorf("Expected %v, got %v", expect, actual)
	}
}

// A point near the corner of the bounding box passes the rectangular
// pre-filter but sits beyond the true radius; only the exact distance
// condition excludes it.
func TestSearchGeoBoxCornerExcluded(t *testing.T) {
	c := newTestCatalog(t,
		testImage{path: "/photos/origin.jpg", lat: ptrTo(48.0), lon: ptrTo(11.0)},
		// inside the 5 km box on both axes, ~6.9 km away diagonally
		testImage{path: "/photos/corner.jpg", lat: ptrTo(48.044), lon: ptrTo(11.065)},
	)

	actual := searchPaths(t, c, SearchCriteria{
		Location: &GeoCircle{Latitude: 48.0, Longitude: 11.0, MaxDistanceMeters: 5000},
	})
	if !reflect.DeepEqual(actual, []string{"/photos/origin.jpg"}) {
		t.Errorf("Expected only the origin, got %v", actual)
	}
}

func TestSearchConfidenceFloor(t *testing.T) {
	c := newTestCatalog(t,
		testImage{
			path:       "/photos/sure.jpg",
			scenes:     []string{"beach"},
			scenesJSON: `{"label": "beach", "confidence": 0.9}`,
		},
		testImage{
			path:       "/photos/unsure.jpg",
			scenes:     []string{"beach"},
			keywords:   []string{"holiday"},
			scenesJSON: `{"label": "beach", "confidence": 0.3}`,
		},
	)

	floor := 0.8

	// detection facets only: the low-confidence match is dropped entirely
	actual := searchPaths(t, c, SearchCriteria{Scenes: []string{"beach"}, MinConfidenceRatio: &floor})
	if !reflect.DeepEqual(actual, []string{"/photos/sure.jpg"}) {
		t.Errorf("Expected only the confident match, got %v", actual)
	}

	// with a non-detection facet the record survives, scene reset to unknown
	results, err := c.Search(context.Background(),
		SearchCriteria{Keywords: []string{"holiday"}, Scenes: []string{"beach"}, MinConfidenceRatio: &floor},
		SearchOptions{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(results.Records))
	}
	scene := results.Records[0].Scene
	if scene.Label != UnknownSceneLabel || scene.Success {
		t.Errorf("low-confidence scene should be the unknown sentinel, got %+v", scene)
	}
}

func TestSearchAppendAndDedup(t *testing.T) {
	c := newTestCatalog(t,
		testImage{path: "/photos/a.jpg", keywords: []string{"sunset"}},
		testImage{path: "/photos/b.jpg", keywords: []string{"sunset"}},
	)

	carried := []*ImageRecord{
		{Path: "/photos/z-first.jpg"},
		{Path: "/photos/a.jpg"}, // also matched by the query below
		{Path: "/photos/a.jpg"}, // duplicate within the carried set itself
	}

	results, err := c.Search(context.Background(),
		SearchCriteria{Keywords: []string{"sunset"}},
		SearchOptions{Append: carried})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	paths := make([]string, 0, len(results.Records))
	for _, rec := range results.Records {
		paths = append(paths, rec.Path)
	}
	// carried records come first, and each path appears exactly once
	expect := []string{"/photos/z-first.jpg", "/photos/a.jpg", "/photos/b.jpg"}
	if !reflect.DeepEqual(paths, expect) {
		t.Errorf("Expected %v, got %v", expect, paths)
	}
	if results.Total != len(expect) {
		t.Errorf("Total = %d, want %d", results.Total, len(expect))
	}
}

func TestSearchStreamStopsOnYieldError(t *testing.T) {
	c := newTestCatalog(t,
		testImage{path: "/photos/a.jpg"},
		testImage{path: "/photos/b.jpg"},
		testImage{path: "/photos/c.jpg"},
	)

	boom := errors.New("stop here")
	var seen int
	err := c.SearchStream(context.Background(), SearchCriteria{}, SearchOptions{},
		func(*ImageRecord) error {
			seen++
			if seen == 2 {
				return boom
			}
			return nil
		})
	if !errors.Is(err, boom) {
		t.Errorf("expected the yield error back, got %v", err)
	}
	if seen != 2 {
		t.Errorf("expected the stream to stop after 2 records, saw %d", seen)
	}
}

func TestSearchEmbedImages(t *testing.T) {
	c := newTestCatalog(t,
		testImage{path: "/photos/tiny.png", imageData: []byte{1, 2, 3}},
		testImage{path: "/photos/nodata.jpg"},
	)

	results, err := c.Search(context.Background(), SearchCriteria{}, SearchOptions{EmbedImages: true})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(results.Records))
	}
	if got := results.Records[1].Path; got != "data:image/png;base64,AQID" {
		t.Errorf("stored image not embedded, path = %q", got)
	}
	if got := results.Records[0].Path; got != "/photos/nodata.jpg" {
		t.Errorf("image without stored bytes should keep its path, got %q", got)
	}
}

func TestFacetValues(t *testing.T) {
	c := newTestCatalog(t,
		testImage{path: "/photos/a.jpg", cameraMake: "Nikon", keywords: []string{"sunset"}},
		testImage{path: "/photos/b.jpg", cameraMake: "Canon", keywords: []string{"beach", "sunset"}},
		testImage{path: "/photos/c.jpg", cameraMake: "Canon"},
	)
	ctx := context.Background()

	makes, err := c.FacetValues(ctx, FacetCameraMake)
	if err != nil {
		t.Fatalf("facet values failed: %v", err)
	}
	if !reflect.DeepEqual(makes, []string{"Canon", "Nikon"}) {
		t.Errorf("camera makes = %v, want [Canon Nikon]", makes)
	}

	keywords, err := c.FacetValues(ctx, FacetKeyword)
	if err != nil {
		t.Fatalf("facet values failed: %v", err)
	}
	if !reflect.DeepEqual(keywords, []string{"beach", "sunset"}) {
		t.Errorf("keywords = %v, want [beach sunset]", keywords)
	}

	if _, err := c.FacetValues(ctx, Facet("bogus")); err == nil {
		t.Error("expected an error for an unknown facet")
	}
}

func TestStats(t *testing.T) {
	c := newTestCatalog(t,
		testImage{path: "/photos/a.jpg", objects: []string{"dog", "cat"}},
		testImage{path: "/photos/b.jpg", objects: []string{"dog"}},
	)

	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Images != 2 {
		t.Errorf("Images = %d, want 2", stats.Images)
	}
	if !reflect.DeepEqual(stats.ObjectCounts, map[string]int{"dog": 2, "cat": 1}) {
		t.Errorf("ObjectCounts = %v, want map[cat:1 dog:2]", stats.ObjectCounts)
	}
}

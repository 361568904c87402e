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
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Fixed vocabularies so fake catalogs look like something a real indexer
// would have produced.
var (
	fakeCameras = []struct{ make, model string }{
		{"Canon", "EOS 5D Mark IV"},
		{"Canon", "EOS 100D"},
		{"Nikon", "D750"},
		{"Sony", "ILCE-7M3"},
		{"Fujifilm", "X-T4"},
		{"Apple", "iPhone 13 Pro"},
		{"Google", "Pixel 7"},
	}
	fakeScenes       = []string{"beach", "forest", "city street", "mountain", "living room", "office", "snow", "sunset"}
	fakeObjects      = []string{"person", "dog", "cat", "car", "bicycle", "tree", "chair", "boat", "bird", "laptop"}
	fakePictureTypes = []string{"photo", "screenshot", "drawing", "scan"}
	fakeMoods        = []string{"happy", "calm", "dramatic", "melancholic", "energetic"}
	fakeStyles       = []string{"portrait", "landscape", "macro", "street", "documentary"}
)

// PopulateWithFakeData provisions the schema and fills the catalog with
// a believable fake index of about numImages images: EXIF values, GPS
// points, AI descriptions, detections with confidences, and a share of
// rows in the legacy flat-column-only shape so both mapper paths stay
// exercised.
func (c *Catalog) PopulateWithFakeData(ctx context.Context, numImages int) error {
	if err := c.Provision(ctx); err != nil {
		return err
	}

	// a small recurring cast so person searches have something to find
	numPeople := gofakeit.Number(5, 12)
	cast := make([]string, numPeople)
	for i := range cast {
		cast[i] = gofakeit.Name()
	}

	c.dbMu.Lock()
	defer c.dbMu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning fake-data transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range numImages {
		if err := insertFakeImage(ctx, tx, i, cast); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing fake data: %w", err)
	}

	Log.Info("populated catalog with fake data",
		zap.Int("images", numImages),
		zap.Int("people", numPeople))
	return nil
}

func insertFakeImage(ctx context.Context, tx execer, i int, cast []string) error {
	cam := fakeCameras[gofakeit.Number(0, len(fakeCameras)-1)]
	taken := gofakeit.DateRange(
		time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))

	ext := "jpg"
	if gofakeit.Number(0, 9) == 0 {
		ext = "png"
	}
	imgPath := fmt.Sprintf("/photos/%d/%02d/%s_%04d.%s",
		taken.Year(), int(taken.Month()), gofakeit.Word(), i, ext)
	fileName := imgPath[strings.LastIndex(imgPath, "/")+1:]

	width := int64(gofakeit.Number(640, 8192))
	height := int64(gofakeit.Number(480, 6144))
	fileSize := int64(gofakeit.Number(100_000, 20_000_000))

	var lat, lon, alt any
	if gofakeit.Number(0, 3) > 0 { // most photos are geotagged
		lat = gofakeit.Latitude()
		lon = gofakeit.Longitude()
		alt = gofakeit.Float64Range(0, 3000)
	}

	keywords := make([]string, gofakeit.Number(2, 6))
	for k := range keywords {
		keywords[k] = gofakeit.Word()
	}
	keywordsJSON, _ := json.Marshal(keywords)

	people := fakePeople(cast)
	objects := fakeObjectDetections()
	scene := Scene{
		Label:      fakeScenes[gofakeit.Number(0, len(fakeScenes)-1)],
		Confidence: gofakeit.Float64Range(0.2, 0.99),
		Success:    true,
	}
	scene.ConfidencePercentage = scene.Confidence * 100

	hasNudity := gofakeit.Number(0, 19) == 0
	hasExplicit := hasNudity && gofakeit.Bool()

	// every fourth row keeps the legacy flat-only shape
	legacy := i%4 == 0

	var peopleJSON, objectsJSON, scenesJSON any
	var sceneLabel, sceneConfidence any
	if legacy {
		sceneLabel = scene.Label
		sceneConfidence = scene.Confidence
	} else {
		pj, _ := json.Marshal(people)
		oj, _ := json.Marshal(objects)
		sj, _ := json.Marshal(scene)
		peopleJSON, objectsJSON, scenesJSON = string(pj), string(oj), string(sj)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO images (
			path, width, height, file_size, file_name, extension, format,
			camera_make, camera_model, exposure_time, f_number, iso, focal_length,
			gps_latitude, gps_longitude, gps_altitude,
			artist, date_taken, software,
			picture_type, overall_mood, style_type,
			has_nudity, has_explicit_content,
			short_description, long_description, keywords,
			people_count, objects_count, scene_label, scene_confidence,
			people, objects, scenes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		imgPath, width, height, fileSize, fileName, ext, strings.ToUpper(ext),
		cam.make, cam.model,
		gofakeit.Float64Range(0.0005, 30), gofakeit.Float64Range(1.2, 22),
		gofakeit.Number(50, 12800), gofakeit.Float64Range(12, 400),
		lat, lon, alt,
		gofakeit.Name(), taken.UnixMilli(), "pictoria-indexer",
		fakePictureTypes[gofakeit.Number(0, len(fakePictureTypes)-1)],
		fakeMoods[gofakeit.Number(0, len(fakeMoods)-1)],
		fakeStyles[gofakeit.Number(0, len(fakeStyles)-1)],
		hasNudity, hasExplicit,
		gofakeit.Sentence(8), gofakeit.Paragraph(1, 3, 12, " "), string(keywordsJSON),
		people.Count, objects.Count, sceneLabel, sceneConfidence,
		peopleJSON, objectsJSON, scenesJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting fake image %d: %w", i, err)
	}
	imageID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting fake image ID: %w", err)
	}

	for _, kw := range keywords {
		if _, err := tx.ExecContext(ctx, `INSERT INTO image_keywords (image_id, keyword) VALUES (?, ?)`, imageID, kw); err != nil {
			return fmt.Errorf("inserting fake keyword: %w", err)
		}
	}
	for _, p := range people.Predictions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO image_people (image_id, person) VALUES (?, ?)`, imageID, p.UserID); err != nil {
			return fmt.Errorf("inserting fake person: %w", err)
		}
	}
	for _, o := range objects.Predictions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO image_objects (image_id, label) VALUES (?, ?)`, imageID, o.Label); err != nil {
			return fmt.Errorf("inserting fake object: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO image_scenes (image_id, label, confidence) VALUES (?, ?, ?)`, imageID, scene.Label, scene.Confidence); err != nil {
		return fmt.Errorf("inserting fake scene: %w", err)
	}

	return nil
}

func fakePeople(cast []string) People {
	n := gofakeit.Number(0, 3)
	p := People{Count: n, Success: n > 0}
	for range n {
		who := cast[gofakeit.Number(0, len(cast)-1)]
		p.Predictions = append(p.Predictions, FacePrediction{
			Confidence: gofakeit.Float64Range(0.3, 0.99),
			BBox:       fakeBBox(),
			UserID:     who,
		})
	}
	p.Count = len(p.Predictions)
	p.Faces = faceLabels(p.Predictions)
	return p
}

func fakeObjectDetections() Objects {
	n := gofakeit.Number(0, 5)
	var o Objects
	for range n {
		o.Predictions = append(o.Predictions, ObjectPrediction{
			Confidence: gofakeit.Float64Range(0.3, 0.99),
			BBox:       fakeBBox(),
			Label:      fakeObjects[gofakeit.Number(0, len(fakeObjects)-1)],
		})
	}
	o.Count = len(o.Predictions)
	if o.Count > 0 {
		o.LabelCounts = tallyLabels(o.Predictions)
	}
	return o
}

func fakeBBox() []float64 {
	x := gofakeit.Float64Range(0, 0.8)
	y := gofakeit.Float64Range(0, 0.8)
	return []float64{x, y, x + gofakeit.Float64Range(0.05, 0.2), y + gofakeit.Float64Range(0.05, 0.2)}
}

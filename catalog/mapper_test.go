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
	"reflect"
	"testing"
	"time"
)

func ptrTo[T any](v T) *T { return &v }

// An older flat-column row and a newer sub-document row holding the same
// values must map to the same record.
func TestRecordShapesEquivalent(t *testing.T) {
	taken := time.Date(2023, 6, 15, 14, 30, 5, 0, time.UTC)

	flat := &imageRow{
		path:             "/photos/img.jpg",
		width:            ptrTo(int64(1920)),
		height:           ptrTo(int64(1080)),
		cameraMake:       ptrTo("Canon"),
		cameraModel:      ptrTo("EOS 5D"),
		iso:              ptrTo(int64(400)),
		gpsLatitude:      ptrTo(48.1372),
		gpsLongitude:     ptrTo(11.5756),
		dateTaken:        ptrTo(taken.UnixMilli()),
		pictureType:      ptrTo("photo"),
		hasNudity:        ptrTo(false),
		shortDescription: ptrTo("a sunset"),
		keywordsJSON:     ptrTo(`["sunset","beach"]`),
		peopleCount:      ptrTo(int64(0)),
		objectsCount:     ptrTo(int64(0)),
		sceneLabel:       ptrTo("beach"),
		sceneConfidence:  ptrTo(0.9),
	}

	doc := &imageRow{
		path:             "/photos/img.jpg",
		width:            ptrTo(int64(1920)),
		height:           ptrTo(int64(1080)),
		pictureType:      ptrTo("photo"),
		hasNudity:        ptrTo(false),
		shortDescription: ptrTo("a sunset"),
		keywordsJSON:     ptrTo(`["sunset","beach"]`),
		metadataJSON: ptrTo(`{
			"camera": {"make": "Canon", "model": "EOS 5D"},
			"gps": {"latitude": 48.1372, "longitude": 11.5756},
			"exposure": {"iso": 400},
			"date_time": {"original": "2023-06-15T14:30:05Z"}
		}`),
		scenesJSON: ptrTo(`{"label": "beach", "confidence": 0.9}`),
	}

	flatRec := flat.record(false)
	docRec := doc.record(false)

	// time.Time carries different internal representations depending on
	// how it was constructed, so compare instants explicitly and leave
	// them out of the deep comparison
	ft, dt := flatRec.Metadata.DateTime.Original, docRec.Metadata.DateTime.Original
	if ft == nil || dt == nil || !ft.Equal(*dt) {
		t.Errorf("taken date differs between shapes: %v vs %v", ft, dt)
	}
	flatRec.Metadata.DateTime = DateTimeMetadata{}
	docRec.Metadata.DateTime = DateTimeMetadata{}

	if !reflect.DeepEqual(flatRec.Metadata, docRec.Metadata) {
		t.Errorf("metadata differs between shapes:\nflat: %+v\ndoc:  %+v",
			flatRec.Metadata, docRec.Metadata)
	}
	if !reflect.DeepEqual(flatRec.Description, docRec.Description) {
		t.Errorf("description differs between shapes:\nflat: %+v\ndoc:  %+v",
			flatRec.Description, docRec.Description)
	}
	if !reflect.DeepEqual(flatRec.Scene, docRec.Scene) {
		t.Errorf("scene differs between shapes:\nflat: %+v\ndoc:  %+v",
			flatRec.Scene, docRec.Scene)
	}
}

// Sub-document fields win over flat columns where both are set; absent
// sub-document fields fall back to the flat column.
func TestRecordSubdocumentPrecedence(t *testing.T) {
	ir := &imageRow{
		path:         "/photos/img.jpg",
		cameraMake:   ptrTo("OldMake"),
		cameraModel:  ptrTo("OldModel"),
		metadataJSON: ptrTo(`{"camera": {"make": "NewMake"}}`),
	}

	meta := ir.record(false).Metadata
	if meta.Camera.Make == nil || *meta.Camera.Make != "NewMake" {
		t.Errorf("expected sub-document make to win, got %v", meta.Camera.Make)
	}
	if meta.Camera.Model == nil || *meta.Camera.Model != "OldModel" {
		t.Errorf("expected fallback to flat model, got %v", meta.Camera.Model)
	}
}

// A malformed sub-document degrades its group to flat-column data instead
// of failing the record.
func TestRecordMalformedSubdocuments(t *testing.T) {
	ir := &imageRow{
		path:         "/photos/img.jpg",
		cameraMake:   ptrTo("Canon"),
		keywordsJSON: ptrTo(`{not json`),
		metadataJSON: ptrTo(`{not json`),
		peopleJSON:   ptrTo(`{not json`),
		objectsJSON:  ptrTo(`{not json`),
		scenesJSON:   ptrTo(`{not json`),
		peopleCount:  ptrTo(int64(2)),
		objectsCount: ptrTo(int64(1)),
		sceneLabel:   ptrTo("beach"),
	}

	rec := ir.record(false)
	if rec.Metadata.Camera.Make == nil || *rec.Metadata.Camera.Make != "Canon" {
		t.Errorf("metadata did not fall back to flat columns: %+v", rec.Metadata.Camera)
	}
	if rec.Description.Keywords != nil {
		t.Errorf("malformed keyword list should be empty, got %v", rec.Description.Keywords)
	}
	if rec.People.Count != 2 || !rec.People.Success {
		t.Errorf("people did not fall back to flat count: %+v", rec.People)
	}
	if rec.Objects.Count != 1 {
		t.Errorf("objects did not fall back to flat count: %+v", rec.Objects)
	}
	if rec.Scene.Label != "beach" || !rec.Scene.Success {
		t.Errorf("scene did not fall back to flat columns: %+v", rec.Scene)
	}
}

func TestPeopleCountFollowsPredictions(t *testing.T) {
	ir := &imageRow{
		path: "/photos/img.jpg",
		// count in the document is stale on purpose
		peopleJSON: ptrTo(`{"count": 99, "predictions": [{"confidence": 0.9, "user_id": "alice"}], "success": true}`),
	}
	p := ir.record(false).People
	if p.Count != 1 {
		t.Errorf("count should equal len(predictions), got %d", p.Count)
	}
}

func TestObjectsLabelCountsDerived(t *testing.T) {
	ir := &imageRow{
		path:        "/photos/img.jpg",
		objectsJSON: ptrTo(`{"predictions": [{"confidence": 0.9, "label": "dog"}, {"confidence": 0.8, "label": "dog"}, {"confidence": 0.7, "label": "cat"}]}`),
	}
	o := ir.record(false).Objects
	if o.Count != 3 {
		t.Errorf("count should equal len(predictions), got %d", o.Count)
	}
	if !reflect.DeepEqual(o.LabelCounts, map[string]int{"dog": 2, "cat": 1}) {
		t.Errorf("label counts = %v, want map[cat:1 dog:2]", o.LabelCounts)
	}
}

func TestNormalizeScene(t *testing.T) {
	for i, tc := range []struct {
		input  Scene
		expect Scene
	}{
		{
			input:  Scene{},
			expect: Scene{Label: UnknownSceneLabel},
		},
		{
			input:  Scene{Label: "beach", Confidence: 0.8},
			expect: Scene{Label: "beach", Confidence: 0.8, ConfidencePercentage: 80, Success: true},
		},
		{
			input:  Scene{Label: "beach", Confidence: 0.8, ConfidencePercentage: 80},
			expect: Scene{Label: "beach", Confidence: 0.8, ConfidencePercentage: 80, Success: true},
		},
		{
			input:  Scene{Label: UnknownSceneLabel},
			expect: Scene{Label: UnknownSceneLabel},
		},
	} {
		if actual := normalizeScene(tc.input); actual != tc.expect {
			t.Errorf("Test %d: normalizeScene(%+v) = %+v, want %+v", i, tc.input, actual, tc.expect)
		}
	}
}

func TestNullableMilliTime(t *testing.T) {
	if nullableMilliTime(nil) != nil {
		t.Error("nil input should stay nil")
	}
	ms := time.Date(2023, 6, 15, 14, 30, 5, 0, time.UTC).UnixMilli()
	got := nullableMilliTime(&ms)
	if got == nil || !got.Equal(time.UnixMilli(ms)) {
		t.Errorf("got %v, want %v", got, time.UnixMilli(ms).UTC())
	}
}

func TestDataURI(t *testing.T) {
	for i, tc := range []struct {
		path   string
		data   []byte
		expect string
	}{
		{"/photos/img.png", []byte{1, 2, 3}, "data:image/png;base64,AQID"},
		{"/photos/img.JPG", []byte{1, 2, 3}, "data:image/jpeg;base64,AQID"},
		{"/photos/img.webp", []byte{1, 2, 3}, "data:image/webp;base64,AQID"},
		// unknown extensions are served as JPEG
		{"/photos/img.xyz", []byte{1, 2, 3}, "data:image/jpeg;base64,AQID"},
		{"/photos/noext", []byte{1, 2, 3}, "data:image/jpeg;base64,AQID"},
	} {
		if actual := dataURI(tc.path, tc.data); actual != tc.expect {
			t.Errorf("Test %d: dataURI(%q) = %q, want %q", i, tc.path, actual, tc.expect)
		}
	}
}

func TestRecordEmbedsImageData(t *testing.T) {
	ir := &imageRow{
		path:      "/photos/img.png",
		imageData: []byte{1, 2, 3},
	}
	if got := ir.record(true).Path; got != "data:image/png;base64,AQID" {
		t.Errorf("embedded path = %q", got)
	}
	if got := ir.record(false).Path; got != "/photos/img.png" {
		t.Errorf("non-embedded path = %q", got)
	}
	// no stored bytes means the path stays a path even when embedding
	ir.imageData = nil
	if got := ir.record(true).Path; got != "/photos/img.png" {
		t.Errorf("embed without data should keep the path, got %q", got)
	}
}

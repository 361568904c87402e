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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

// The catalog has grown through two index revisions: older rows carry
// only flat columns, newer rows additionally carry serialized
// sub-documents with the same information and more. The mapper prefers
// the sub-document field-by-field and falls back to the flat column, so
// records built from either shape come out identical where the
// underlying values are equivalent.

// imageRow mirrors one raw row of the images table. Every nullable
// column is a pointer so a storage NULL never silently becomes a zero.
type imageRow struct {
	id   int64
	path string

	width, height  *int64
	fileSize       *int64
	fileName       *string
	extension      *string
	pixelFormat    *string
	format         *string
	bitsPerSample  *int64
	orientation    *int64
	xResolution    *float64
	yResolution    *float64
	cameraMake     *string
	cameraModel    *string
	exposureTime   *float64
	fNumber        *float64
	iso            *int64
	focalLength    *float64
	flash          *string
	exposureProg   *string
	meteringMode   *string
	gpsLatitude    *float64
	gpsLongitude   *float64
	gpsAltitude    *float64
	artist         *string
	copyright      *string
	dateTaken      *int64 // unix milli
	dateDigitized  *int64 // unix milli
	software       *string
	colorSpace     *string
	resolutionUnit *string

	pictureType      *string
	overallMood      *string
	styleType        *string
	hasNudity        *bool
	hasExplicit      *bool
	shortDescription *string
	longDescription  *string
	keywordsJSON     *string

	peopleCount     *int64
	objectsCount    *int64
	sceneLabel      *string
	sceneConfidence *float64

	metadataJSON *string
	peopleJSON   *string
	objectsJSON  *string
	scenesJSON   *string

	imageData []byte
}

// imageDBColumns is the column list every search query selects; it must
// stay in lockstep with scanImageRow.
const imageDBColumns = `images.id, images.path, images.width, images.height,
images.file_size, images.file_name, images.extension, images.pixel_format, images.format,
images.bits_per_sample, images.orientation, images.x_resolution, images.y_resolution,
images.camera_make, images.camera_model, images.exposure_time, images.f_number, images.iso,
images.focal_length, images.flash, images.exposure_program, images.metering_mode,
images.gps_latitude, images.gps_longitude, images.gps_altitude,
images.artist, images.copyright, images.date_taken, images.date_digitized,
images.software, images.color_space, images.resolution_unit,
images.picture_type, images.overall_mood, images.style_type,
images.has_nudity, images.has_explicit_content,
images.short_description, images.long_description, images.keywords,
images.people_count, images.objects_count, images.scene_label, images.scene_confidence,
images.metadata, images.people, images.objects, images.scenes, images.image_data`

type sqlScanner interface {
	Scan(dest ...any) error
}

// scanImageRow reads one image from row. The query must have selected
// exactly imageDBColumns.
func scanImageRow(row sqlScanner) (*imageRow, error) {
	var ir imageRow
	err := row.Scan(&ir.id, &ir.path, &ir.width, &ir.height,
		&ir.fileSize, &ir.fileName, &ir.extension, &ir.pixelFormat, &ir.format,
		&ir.bitsPerSample, &ir.orientation, &ir.xResolution, &ir.yResolution,
		&ir.cameraMake, &ir.cameraModel, &ir.exposureTime, &ir.fNumber, &ir.iso,
		&ir.focalLength, &ir.flash, &ir.exposureProg, &ir.meteringMode,
		&ir.gpsLatitude, &ir.gpsLongitude, &ir.gpsAltitude,
		&ir.artist, &ir.copyright, &ir.dateTaken, &ir.dateDigitized,
		&ir.software, &ir.colorSpace, &ir.resolutionUnit,
		&ir.pictureType, &ir.overallMood, &ir.styleType,
		&ir.hasNudity, &ir.hasExplicit,
		&ir.shortDescription, &ir.longDescription, &ir.keywordsJSON,
		&ir.peopleCount, &ir.objectsCount, &ir.sceneLabel, &ir.sceneConfidence,
		&ir.metadataJSON, &ir.peopleJSON, &ir.objectsJSON, &ir.scenesJSON, &ir.imageData)
	if err != nil {
		return nil, fmt.Errorf("scanning image row: %w", err)
	}
	return &ir, nil
}

// record assembles the nested result record from the raw row. One
// malformed sub-document degrades that group to flat-column data; it
// never fails the whole record.
func (ir *imageRow) record(embedImage bool) *ImageRecord {
	rec := &ImageRecord{
		Path:   ir.path,
		Width:  ir.width,
		Height: ir.height,
	}

	rec.Metadata = ir.metadata()
	rec.Description = ir.description()
	rec.People = ir.people()
	rec.Objects = ir.objects()
	rec.Scene = ir.scene()

	if embedImage && len(ir.imageData) > 0 {
		rec.Path = dataURI(ir.path, ir.imageData)
	}

	return rec
}

func (ir *imageRow) metadata() ImageMetadata {
	var doc ImageMetadata
	if ir.metadataJSON != nil {
		if err := json.Unmarshal([]byte(*ir.metadataJSON), &doc); err != nil {
			Log.Debug("malformed metadata document; using flat columns",
				zap.String("path", ir.path), zap.Error(err))
			doc = ImageMetadata{}
		}
	}

	return ImageMetadata{
		Camera: CameraMetadata{
			Make:  firstNonNil(doc.Camera.Make, ir.cameraMake),
			Model: firstNonNil(doc.Camera.Model, ir.cameraModel),
		},
		GPS: GPSMetadata{
			Latitude:  firstNonNil(doc.GPS.Latitude, ir.gpsLatitude),
			Longitude: firstNonNil(doc.GPS.Longitude, ir.gpsLongitude),
			Altitude:  firstNonNil(doc.GPS.Altitude, ir.gpsAltitude),
		},
		Exposure: ExposureMetadata{
			ExposureTime: firstNonNil(doc.Exposure.ExposureTime, ir.exposureTime),
			FNumber:      firstNonNil(doc.Exposure.FNumber, ir.fNumber),
			ISO:          firstNonNil(doc.Exposure.ISO, ir.iso),
			FocalLength:  firstNonNil(doc.Exposure.FocalLength, ir.focalLength),
			Flash:        firstNonNil(doc.Exposure.Flash, ir.flash),
			Program:      firstNonNil(doc.Exposure.Program, ir.exposureProg),
			MeteringMode: firstNonNil(doc.Exposure.MeteringMode, ir.meteringMode),
		},
		Basic: BasicMetadata{
			BitsPerSample: firstNonNil(doc.Basic.BitsPerSample, ir.bitsPerSample),
			Orientation:   firstNonNil(doc.Basic.Orientation, ir.orientation),
			XResolution:   firstNonNil(doc.Basic.XResolution, ir.xResolution),
			YResolution:   firstNonNil(doc.Basic.YResolution, ir.yResolution),
			FileSize:      firstNonNil(doc.Basic.FileSize, ir.fileSize),
			FileName:      firstNonNil(doc.Basic.FileName, ir.fileName),
			Extension:     firstNonNil(doc.Basic.Extension, ir.extension),
			PixelFormat:   firstNonNil(doc.Basic.PixelFormat, ir.pixelFormat),
			Format:        firstNonNil(doc.Basic.Format, ir.format),
			Width:         firstNonNil(doc.Basic.Width, ir.width),
			Height:        firstNonNil(doc.Basic.Height, ir.height),
		},
		Author: AuthorMetadata{
			Artist:    firstNonNil(doc.Author.Artist, ir.artist),
			Copyright: firstNonNil(doc.Author.Copyright, ir.copyright),
		},
		DateTime: DateTimeMetadata{
			Original:  firstNonNil(doc.DateTime.Original, nullableMilliTime(ir.dateTaken)),
			Digitized: firstNonNil(doc.DateTime.Digitized, nullableMilliTime(ir.dateDigitized)),
		},
		Other: OtherMetadata{
			Software:       firstNonNil(doc.Other.Software, ir.software),
			ColorSpace:     firstNonNil(doc.Other.ColorSpace, ir.colorSpace),
			ResolutionUnit: firstNonNil(doc.Other.ResolutionUnit, ir.resolutionUnit),
		},
	}
}

func (ir *imageRow) description() Description {
	desc := Description{
		HasExplicitContent: ir.hasExplicit,
		HasNudity:          ir.hasNudity,
		PictureType:        ir.pictureType,
		OverallMood:        ir.overallMood,
		StyleType:          ir.styleType,
		ShortDescription:   ir.shortDescription,
		LongDescription:    ir.longDescription,
	}
	if ir.keywordsJSON != nil {
		if err := json.Unmarshal([]byte(*ir.keywordsJSON), &desc.Keywords); err != nil {
			Log.Debug("malformed keyword list; leaving empty",
				zap.String("path", ir.path), zap.Error(err))
			desc.Keywords = nil
		}
	}
	return desc
}

func (ir *imageRow) people() People {
	if ir.peopleJSON != nil {
		var doc People
		if err := json.Unmarshal([]byte(*ir.peopleJSON), &doc); err == nil {
			if doc.Predictions != nil {
				doc.Count = len(doc.Predictions)
			}
			return doc
		}
		Log.Debug("malformed people document; using flat columns", zap.String("path", ir.path))
	}
	var p People
	if ir.peopleCount != nil {
		p.Count = int(*ir.peopleCount)
		p.Success = p.Count > 0
	}
	return p
}

func (ir *imageRow) objects() Objects {
	if ir.objectsJSON != nil {
		var doc Objects
		if err := json.Unmarshal([]byte(*ir.objectsJSON), &doc); err == nil {
			if doc.Predictions != nil {
				doc.Count = len(doc.Predictions)
			}
			if doc.LabelCounts == nil && len(doc.Predictions) > 0 {
				doc.LabelCounts = tallyLabels(doc.Predictions)
			}
			return doc
		}
		Log.Debug("malformed objects document; using flat columns", zap.String("path", ir.path))
	}
	var o Objects
	if ir.objectsCount != nil {
		o.Count = int(*ir.objectsCount)
	}
	return o
}

func (ir *imageRow) scene() Scene {
	if ir.scenesJSON != nil {
		var doc Scene
		if err := json.Unmarshal([]byte(*ir.scenesJSON), &doc); err == nil {
			return normalizeScene(doc)
		}
		Log.Debug("malformed scene document; using flat columns", zap.String("path", ir.path))
	}
	var s Scene
	if ir.sceneLabel != nil {
		s.Label = *ir.sceneLabel
	}
	if ir.sceneConfidence != nil {
		s.Confidence = *ir.sceneConfidence
	}
	return normalizeScene(s)
}

func normalizeScene(s Scene) Scene {
	if s.Label == "" {
		return unknownScene()
	}
	if s.ConfidencePercentage == 0 && s.Confidence > 0 {
		s.ConfidencePercentage = s.Confidence * 100
	}
	if s.Label != UnknownSceneLabel {
		s.Success = true
	}
	return s
}

func tallyLabels(preds []ObjectPrediction) map[string]int {
	counts := make(map[string]int, len(preds))
	for _, p := range preds {
		counts[p.Label]++
	}
	return counts
}

// firstNonNil returns the first non-nil pointer, preferring the
// sub-document value over the flat column.
func firstNonNil[T any](doc, flat *T) *T {
	if doc != nil {
		return doc
	}
	return flat
}

func nullableMilliTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

// mimeTypesByExtension is the fixed extension→MIME mapping for embedded
// image data; anything unrecognized is served as JPEG.
var mimeTypesByExtension = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
	"tiff": "image/tiff",
}

// dataURI renders the image bytes as a base64 data URI with a MIME type
// derived from the path's extension.
func dataURI(imagePath string, data []byte) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(imagePath), "."))
	mimeType, ok := mimeTypesByExtension[ext]
	if !ok {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

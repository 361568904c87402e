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

import "time"

// ImageRecord is one fully-assembled search result. Scalar fields that can
// be absent in the catalog are pointers so that a storage NULL is
// distinguishable from a zero value.
type ImageRecord struct {
	// Path of the image file as indexed. When image embedding was
	// requested and the catalog holds the image bytes, this is a
	// base64 data URI instead of a filesystem path.
	Path string `json:"path"`

	Width  *int64 `json:"width,omitempty"`
	Height *int64 `json:"height,omitempty"`

	Metadata    ImageMetadata `json:"metadata"`
	Description Description   `json:"description"`
	People      People        `json:"people"`
	Objects     Objects       `json:"objects"`
	Scene       Scene         `json:"scene"`
}

// ImageMetadata groups the EXIF-derived metadata of an image. The same
// structure is stored as the serialized metadata sub-document in newer
// catalog rows, which is why every leaf is nullable: an absent field in
// the sub-document falls back to the corresponding flat column.
type ImageMetadata struct {
	Camera   CameraMetadata   `json:"camera,omitzero"`
	GPS      GPSMetadata      `json:"gps,omitzero"`
	Exposure ExposureMetadata `json:"exposure,omitzero"`
	Basic    BasicMetadata    `json:"basic,omitzero"`
	Author   AuthorMetadata   `json:"author,omitzero"`
	DateTime DateTimeMetadata `json:"date_time,omitzero"`
	Other    OtherMetadata    `json:"other,omitzero"`
}

type CameraMetadata struct {
	Make  *string `json:"make,omitempty"`
	Model *string `json:"model,omitempty"`
}

type GPSMetadata struct {
	Latitude  *float64 `json:"latitude,omitempty"`  // degrees
	Longitude *float64 `json:"longitude,omitempty"` // degrees
	Altitude  *float64 `json:"altitude,omitempty"`  // meters
}

type ExposureMetadata struct {
	ExposureTime *float64 `json:"exposure_time,omitempty"` // seconds
	FNumber      *float64 `json:"f_number,omitempty"`
	ISO          *int64   `json:"iso,omitempty"`
	FocalLength  *float64 `json:"focal_length,omitempty"` // millimeters
	Flash        *string  `json:"flash,omitempty"`
	Program      *string  `json:"program,omitempty"`
	MeteringMode *string  `json:"metering_mode,omitempty"`
}

type BasicMetadata struct {
	BitsPerSample *int64   `json:"bits_per_sample,omitempty"`
	Orientation   *int64   `json:"orientation,omitempty"`
	XResolution   *float64 `json:"x_resolution,omitempty"`
	YResolution   *float64 `json:"y_resolution,omitempty"`
	FileSize      *int64   `json:"file_size,omitempty"`
	FileName      *string  `json:"file_name,omitempty"`
	Extension     *string  `json:"extension,omitempty"`
	PixelFormat   *string  `json:"pixel_format,omitempty"`
	Format        *string  `json:"format,omitempty"`
	Width         *int64   `json:"width,omitempty"`
	Height        *int64   `json:"height,omitempty"`
}

type AuthorMetadata struct {
	Artist    *string `json:"artist,omitempty"`
	Copyright *string `json:"copyright,omitempty"`
}

type DateTimeMetadata struct {
	Original  *time.Time `json:"original,omitempty"`
	Digitized *time.Time `json:"digitized,omitempty"`
}

type OtherMetadata struct {
	Software       *string `json:"software,omitempty"`
	ColorSpace     *string `json:"color_space,omitempty"`
	ResolutionUnit *string `json:"resolution_unit,omitempty"`
}

// Description carries the AI-derived description of an image.
type Description struct {
	HasExplicitContent *bool    `json:"has_explicit_content,omitempty"`
	HasNudity          *bool    `json:"has_nudity,omitempty"`
	PictureType        *string  `json:"picture_type,omitempty"`
	OverallMood        *string  `json:"overall_mood,omitempty"`
	StyleType          *string  `json:"style_type,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
	ShortDescription   *string  `json:"short_description,omitempty"`
	LongDescription    *string  `json:"long_description,omitempty"`
}

// People carries the face-detection results for an image.
// Count always equals len(Predictions), also after confidence filtering.
type People struct {
	Count       int              `json:"count"`
	Faces       []string         `json:"faces,omitempty"`
	Predictions []FacePrediction `json:"predictions,omitempty"`
	Success     bool             `json:"success"`
}

type FacePrediction struct {
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
}

// Objects carries the object-detection results for an image.
// Count always equals len(Predictions), also after confidence filtering.
type Objects struct {
	Count       int                `json:"count"`
	Predictions []ObjectPrediction `json:"predictions,omitempty"`
	LabelCounts map[string]int     `json:"label_counts,omitempty"`
}

type ObjectPrediction struct {
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox,omitempty"`
	Label      string    `json:"label,omitempty"`
}

// Scene carries the scene-classification result for an image.
type Scene struct {
	Label                string  `json:"label"`
	Confidence           float64 `json:"confidence"`
	ConfidencePercentage float64 `json:"confidence_percentage"`
	Success              bool    `json:"success"`
}

// UnknownSceneLabel is the label of the canonical unknown scene, used when
// no scene was classified or the classification fell below the requested
// confidence floor.
const UnknownSceneLabel = "unknown"

func unknownScene() Scene {
	return Scene{Label: UnknownSceneLabel}
}

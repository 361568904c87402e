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

import "math"

const (
	earthRadiusKm = 6371.0

	// kilometers per degree of latitude (and of longitude at the equator)
	kmPerDegree = 111.12
)

// GeoCircle constrains results to images taken within MaxDistanceMeters
// of a point.
type GeoCircle struct {
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	MaxDistanceMeters float64 `json:"max_distance_meters"`
}

// geoWithin is the compiled form of a GeoCircle: a cheap bounding-box
// range condition that lets the engine use any lat/lon index to shrink
// the candidate set, followed by the exact great-circle distance, which
// guarantees correctness at the corners of the box.
type geoWithin struct {
	lat, lon float64
	maxKm    float64
}

func (c geoWithin) render(w *sqlWriter) {
	latDelta := c.maxKm / kmPerDegree

	// a degree of longitude shrinks with the cosine of the latitude
	cosLat := math.Cos(c.lat * math.Pi / 180)
	lonDelta := 180.0 // degenerate at the poles: any longitude qualifies
	if cosLat > 1e-9 {
		lonDelta = math.Min(c.maxKm/(kmPerDegree*cosLat), 180)
	}

	w.sb.WriteString("(images.gps_latitude IS NOT NULL AND images.gps_longitude IS NOT NULL")

	w.sb.WriteString(" AND images.gps_latitude BETWEEN ")
	w.sb.WriteString(w.bind(c.lat - latDelta))
	w.sb.WriteString(" AND ")
	w.sb.WriteString(w.bind(c.lat + latDelta))

	w.sb.WriteString(" AND images.gps_longitude BETWEEN ")
	w.sb.WriteString(w.bind(c.lon - lonDelta))
	w.sb.WriteString(" AND ")
	w.sb.WriteString(w.bind(c.lon + lonDelta))

	w.sb.WriteString(" AND haversine_km(images.gps_latitude, images.gps_longitude, ")
	w.sb.WriteString(w.bind(c.lat))
	w.sb.WriteString(", ")
	w.sb.WriteString(w.bind(c.lon))
	w.sb.WriteString(") <= ")
	w.sb.WriteString(w.bind(c.maxKm))
	w.sb.WriteByte(')')
}

// haversineKm returns the great-circle distance in kilometers between two
// points on earth's surface. It is registered as the haversine_km SQL
// function on every catalog connection so the exact-distance condition
// runs inside the query engine.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := degreesToRadians(lat1)
	phi2 := degreesToRadians(lat2)
	lambda1 := degreesToRadians(lon1)
	lambda2 := degreesToRadians(lon2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(haversin(phi2-phi1)+math.Cos(phi1)*math.Cos(phi2)*haversin(lambda2-lambda1)))
}

func haversin(theta float64) float64 {
	return 0.5 * (1 - math.Cos(theta))
}

func degreesToRadians(d float64) float64 {
	return d * (math.Pi / 180)
}

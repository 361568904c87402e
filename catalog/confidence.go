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

// applyConfidenceFloor prunes sub-detections below minRatio from the
// record in place: face and object predictions are dropped and their
// derived counts and label lists recomputed, and a scene under the floor
// is reset to the unknown sentinel. Detections cannot be filtered inside
// the query because they live in serialized sub-documents.
//
// The return value reports whether any qualifying detection survived.
func applyConfidenceFloor(rec *ImageRecord, minRatio float64) bool {
	if rec.Scene.Confidence < minRatio {
		rec.Scene = unknownScene()
	}

	kept := rec.People.Predictions[:0]
	for _, p := range rec.People.Predictions {
		if p.Confidence >= minRatio {
			kept = append(kept, p)
		}
	}
	rec.People.Predictions = kept
	rec.People.Count = len(kept)
	rec.People.Success = len(kept) > 0
	rec.People.Faces = faceLabels(kept)

	keptObjs := rec.Objects.Predictions[:0]
	for _, p := range rec.Objects.Predictions {
		if p.Confidence >= minRatio {
			keptObjs = append(keptObjs, p)
		}
	}
	rec.Objects.Predictions = keptObjs
	rec.Objects.Count = len(keptObjs)
	if len(keptObjs) > 0 {
		rec.Objects.LabelCounts = tallyLabels(keptObjs)
	} else {
		rec.Objects.LabelCounts = nil
	}

	return rec.Scene.Success || rec.People.Count > 0 || rec.Objects.Count > 0
}

// faceLabels rebuilds the face-label list from the surviving
// predictions, keeping first-seen order and dropping duplicates and
// unidentified faces.
func faceLabels(preds []FacePrediction) []string {
	if len(preds) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(preds))
	labels := make([]string, 0, len(preds))
	for _, p := range preds {
		if p.UserID == "" {
			continue
		}
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		labels = append(labels, p.UserID)
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}

// Package vecstore provides the persistent spatial object store: labeled 3D
// points with embeddings, supporting idempotent upsert, radius-bounded
// nearest-match-by-class (the deduplication primitive), and similarity
// search.
//
// Object counts are expected to stay in the tens to low hundreds per scene,
// so nearest-match and similarity queries are linear scans rather than a
// spatial or ANN index.
package vecstore

import (
	"errors"

	"github.com/walkielabs/go-walkie/pkg/geometry"
	"github.com/walkielabs/go-walkie/pkg/perception"
)

// Sentinel errors for the vecstore package.
var (
	// ErrNotFound is returned when an object ID does not exist.
	ErrNotFound = errors.New("vecstore: object not found")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("vecstore: store closed")
)

// ObjectRecord is a persisted object sighting. Records are created on first
// sighting and updated in place (same ObjectID) when a later sighting of the
// same class lands within the dedup radius. The detector never deletes
// records; deletion is an administrative operation.
type ObjectRecord struct {
	ObjectID  string     `json:"object_id"`
	Position  [3]float64 `json:"position"`
	Embedding []float32  `json:"embedding"`
	Heading   float64    `json:"heading"`
	SceneID   string     `json:"scene_id,omitempty"`
	ClassID   *int       `json:"class_id,omitempty"`
	ClassName string     `json:"class_name,omitempty"`
}

// Match pairs a record with its similarity to a query embedding.
type Match struct {
	Record     ObjectRecord
	Similarity float32
}

// Store is the spatial object store contract. Implementations must be safe
// for a single writer with concurrent readers; the background detector is
// the only writer in this subsystem.
type Store interface {
	// Upsert writes a record, keyed by ObjectID. Idempotent.
	Upsert(record ObjectRecord) error

	// FindNearby returns the object ID of the closest record with the given
	// class within Euclidean radius of position (boundary inclusive), or
	// ok=false when no record qualifies.
	FindNearby(classID int, position [3]float64, radius float64) (objectID string, ok bool, err error)

	// QueryByEmbedding returns up to k records with similarity >= minSim to
	// the query, ordered by similarity descending.
	QueryByEmbedding(query []float32, k int, minSim float32) ([]Match, error)

	// Get retrieves a record by ID. Returns ErrNotFound when absent.
	Get(objectID string) (ObjectRecord, error)

	// Delete removes a record by ID. Administrative use only.
	Delete(objectID string) error

	// Count returns the number of stored records.
	Count() (int, error)

	// Close releases store resources.
	Close() error
}

// nearest scans records for the closest same-class record within radius.
// Shared by both backends.
func nearest(records []ObjectRecord, classID int, position [3]float64, radius float64) (string, bool) {
	bestID := ""
	bestDist := radius
	found := false
	for _, r := range records {
		if r.ClassID == nil || *r.ClassID != classID {
			continue
		}
		d := geometry.Distance3(r.Position, position)
		if d <= bestDist {
			// <= keeps the boundary inclusive and prefers the later record
			// only when strictly closer.
			if !found || d < bestDist {
				bestID = r.ObjectID
				bestDist = d
				found = true
			}
		}
	}
	return bestID, found
}

// rank scores records against a query embedding and returns the top k at or
// above minSim, descending. Shared by both backends.
func rank(records []ObjectRecord, query []float32, k int, minSim float32) []Match {
	var matches []Match
	for _, r := range records {
		sim := perception.Similarity(query, r.Embedding)
		if sim >= minSim {
			matches = append(matches, Match{Record: r, Similarity: sim})
		}
	}
	// Insertion sort by similarity descending; match counts are small.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Similarity > matches[j-1].Similarity; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

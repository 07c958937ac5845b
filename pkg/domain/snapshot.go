package domain

import (
	"errors"
	"time"
)

// ErrSnapshotNotFound is returned when a snapshot key cannot be found in a store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ElementRecord is the storable form of a model element.
type ElementRecord struct {
	ID          string              `json:"id" yaml:"id"`
	Kind        string              `json:"kind" yaml:"kind"`
	Attributes  map[string]string   `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Collections map[string][]string `json:"collections,omitempty" yaml:"collections,omitempty"`
}

// Snapshot is a point-in-time copy of a whole model, ordered by element ID.
// It holds model data only; undo history is never part of a snapshot.
type Snapshot struct {
	TakenAt  time.Time       `json:"taken_at" yaml:"taken_at"`
	Elements []ElementRecord `json:"elements" yaml:"elements"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{TakenAt: s.TakenAt, Elements: make([]ElementRecord, len(s.Elements))}
	for i, rec := range s.Elements {
		out.Elements[i] = rec.Clone()
	}
	return out
}

// Clone returns a deep copy of the record.
func (r ElementRecord) Clone() ElementRecord {
	out := ElementRecord{ID: r.ID, Kind: r.Kind}
	if r.Attributes != nil {
		out.Attributes = make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			out.Attributes[k] = v
		}
	}
	if r.Collections != nil {
		out.Collections = make(map[string][]string, len(r.Collections))
		for k, v := range r.Collections {
			out.Collections[k] = append([]string(nil), v...)
		}
	}
	return out
}

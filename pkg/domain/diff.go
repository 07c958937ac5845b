package domain

import (
	"maps"
	"slices"
)

// SnapshotDiff lists the element IDs that differ between two snapshots.
type SnapshotDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// Diff compares two snapshots. A nil oldSnap means everything in newSnap is new.
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	before := index(oldSnap)
	after := index(newSnap)

	diff := &SnapshotDiff{}
	for id, rec := range after {
		prev, ok := before[id]
		switch {
		case !ok:
			diff.Added = append(diff.Added, id)
		case !sameRecord(prev, rec):
			diff.Changed = append(diff.Changed, id)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	slices.Sort(diff.Added)
	slices.Sort(diff.Removed)
	slices.Sort(diff.Changed)
	return diff
}

// IsEmpty checks if the diff contains any change.
func (d *SnapshotDiff) IsEmpty() bool {
	return d == nil || len(d.Added)+len(d.Removed)+len(d.Changed) == 0
}

// Touched returns the IDs that exist in the newer snapshot and differ from the older one.
func (d *SnapshotDiff) Touched() []string {
	if d == nil {
		return nil
	}
	out := append(slices.Clone(d.Added), d.Changed...)
	slices.Sort(out)
	return out
}

func index(s *Snapshot) map[string]ElementRecord {
	if s == nil {
		return nil
	}
	out := make(map[string]ElementRecord, len(s.Elements))
	for _, rec := range s.Elements {
		out[rec.ID] = rec
	}
	return out
}

// sameRecord treats nil and empty maps as equal; collection order matters.
func sameRecord(a, b ElementRecord) bool {
	if a.Kind != b.Kind || !maps.Equal(a.Attributes, b.Attributes) || len(a.Collections) != len(b.Collections) {
		return false
	}
	for name, refs := range a.Collections {
		other, ok := b.Collections[name]
		if !ok || !slices.Equal(refs, other) {
			return false
		}
	}
	return true
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	base := &Snapshot{Elements: []ElementRecord{
		{ID: "a", Kind: "Class", Attributes: map[string]string{"name": "A"}},
		{ID: "b", Kind: "Class", Collections: map[string][]string{"ownedAttribute": {"x", "y"}}},
		{ID: "c", Kind: "Package"},
	}}

	tests := []struct {
		name string
		old  *Snapshot
		new  *Snapshot
		want *SnapshotDiff
	}{
		{
			name: "Initial Load",
			old:  nil,
			new:  base,
			want: &SnapshotDiff{Added: []string{"a", "b", "c"}},
		},
		{
			name: "No Changes",
			old:  base,
			new:  base.Clone(),
			want: nil,
		},
		{
			name: "Attribute And Removal",
			old:  base,
			new: &Snapshot{Elements: []ElementRecord{
				{ID: "a", Kind: "Class", Attributes: map[string]string{"name": "Renamed"}},
				{ID: "b", Kind: "Class", Collections: map[string][]string{"ownedAttribute": {"x", "y"}}},
				{ID: "d", Kind: "Diagram"},
			}},
			want: &SnapshotDiff{Added: []string{"d"}, Removed: []string{"c"}, Changed: []string{"a"}},
		},
		{
			name: "Collection Order",
			old:  base,
			new: &Snapshot{Elements: []ElementRecord{
				{ID: "a", Kind: "Class", Attributes: map[string]string{"name": "A"}},
				{ID: "b", Kind: "Class", Collections: map[string][]string{"ownedAttribute": {"y", "x"}}},
				{ID: "c", Kind: "Package", Attributes: map[string]string{}},
			}},
			want: &SnapshotDiff{Changed: []string{"b"}},
		},
		{
			name: "Everything Removed",
			old:  base,
			new:  &Snapshot{},
			want: &SnapshotDiff{Removed: []string{"a", "b", "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.old, tt.new))
		})
	}
}

func TestSnapshotDiff_Touched(t *testing.T) {
	var none *SnapshotDiff
	assert.True(t, none.IsEmpty())
	assert.Nil(t, none.Touched())

	d := &SnapshotDiff{Added: []string{"z"}, Changed: []string{"a"}, Removed: []string{"m"}}
	assert.False(t, d.IsEmpty())
	assert.Equal(t, []string{"a", "z"}, d.Touched())
}

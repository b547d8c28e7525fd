package label

import (
	"testing"

	"github.com/appltini/app-mesh/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		label     types.Label
		predicate types.Predicate
		expected  bool
	}{
		{
			name:      "empty predicate always matches",
			label:     types.Label{"zone": "a"},
			predicate: nil,
			expected:  true,
		},
		{
			name:      "single eq clause matches",
			label:     types.Label{"zone": "a"},
			predicate: types.Predicate{{Key: "zone", Op: types.OpEquals, Value: "a"}},
			expected:  true,
		},
		{
			name:      "single eq clause mismatches",
			label:     types.Label{"zone": "b"},
			predicate: types.Predicate{{Key: "zone", Op: types.OpEquals, Value: "a"}},
			expected:  false,
		},
		{
			name:      "missing key fails eq",
			label:     types.Label{},
			predicate: types.Predicate{{Key: "zone", Op: types.OpEquals, Value: "a"}},
			expected:  false,
		},
		{
			name:  "conjunction requires all clauses",
			label: types.Label{"zone": "a", "tier": "gpu"},
			predicate: types.Predicate{
				{Key: "zone", Op: types.OpEquals, Value: "a"},
				{Key: "tier", Op: types.OpEquals, Value: "gpu"},
			},
			expected: true,
		},
		{
			name:  "conjunction fails on one clause",
			label: types.Label{"zone": "a", "tier": "cpu"},
			predicate: types.Predicate{
				{Key: "zone", Op: types.OpEquals, Value: "a"},
				{Key: "tier", Op: types.OpEquals, Value: "gpu"},
			},
			expected: false,
		},
		{
			name:      "exists passes when key present",
			label:     types.Label{"zone": "a"},
			predicate: types.Predicate{{Key: "zone", Op: types.OpExists}},
			expected:  true,
		},
		{
			name:      "exists fails when key absent",
			label:     types.Label{},
			predicate: types.Predicate{{Key: "zone", Op: types.OpExists}},
			expected:  false,
		},
		{
			name:      "ne passes when value differs",
			label:     types.Label{"zone": "b"},
			predicate: types.Predicate{{Key: "zone", Op: types.OpNotEquals, Value: "a"}},
			expected:  true,
		},
		{
			name:      "ne passes when key absent",
			label:     types.Label{},
			predicate: types.Predicate{{Key: "zone", Op: types.OpNotEquals, Value: "a"}},
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Match(tt.label, tt.predicate))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(types.Label{"a": "1"}, types.Label{"a": "1"}))
	assert.False(t, Equal(types.Label{"a": "1"}, types.Label{"a": "2"}))
	assert.False(t, Equal(types.Label{"a": "1"}, types.Label{"a": "1", "b": "2"}))
}

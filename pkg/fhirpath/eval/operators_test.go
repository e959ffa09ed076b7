package eval

import (
	"testing"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

func ints(vs ...int64) types.Collection {
	col := make(types.Collection, len(vs))
	for i, v := range vs {
		col[i] = types.NewInteger(v)
	}
	return col
}

func TestEqualCollections(t *testing.T) {
	tests := []struct {
		name        string
		left, right types.Collection
		want        types.Collection
	}{
		{"same length equal elements", ints(1, 2, 3), ints(1, 2, 3), types.TrueCollection},
		{"same length, one element differs", ints(1, 2, 3), ints(1, 2, 4), types.FalseCollection},
		{"different length", ints(1, 2, 3), ints(1, 2), types.FalseCollection},
		{"order matters", ints(1, 2, 3), ints(3, 2, 1), types.FalseCollection},
		{"left empty", types.Collection{}, ints(1), types.EmptyCollection},
		{"right empty", ints(1), types.Collection{}, types.EmptyCollection},
		{"both empty", types.Collection{}, types.Collection{}, types.EmptyCollection},
		{"singletons still compare", ints(5), ints(5), types.TrueCollection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Equal(tt.left, tt.right)
			if got.Empty() != tt.want.Empty() {
				t.Fatalf("Equal() empty = %v, want %v", got.Empty(), tt.want.Empty())
			}
			if !got.Empty() {
				gb, _ := got[0].(types.Boolean)
				wb, _ := tt.want[0].(types.Boolean)
				if gb.Bool() != wb.Bool() {
					t.Errorf("Equal() = %v, want %v", gb.Bool(), wb.Bool())
				}
			}
		})
	}
}

func TestEquivalentCollectionsIgnoresOrder(t *testing.T) {
	left := ints(1, 2, 3)
	right := ints(3, 1, 2)

	got := Equivalent(left, right)
	if got.Empty() {
		t.Fatal("Equivalent() returned Empty, want a Boolean")
	}
	if b, ok := got[0].(types.Boolean); !ok || !b.Bool() {
		t.Errorf("Equivalent() = %v, want true", got[0])
	}

	mismatched := ints(1, 2, 4)
	got = Equivalent(left, mismatched)
	if b, ok := got[0].(types.Boolean); !ok || b.Bool() {
		t.Errorf("Equivalent() = %v, want false for a non-matching multiset", got[0])
	}
}

func TestEquivalentDifferentLength(t *testing.T) {
	got := Equivalent(ints(1, 2, 3), ints(1, 2))
	if b, ok := got[0].(types.Boolean); !ok || b.Bool() {
		t.Errorf("Equivalent() = %v, want false for differing lengths", got[0])
	}
}

package similarity

import (
	"math"
	"reflect"
	"testing"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b Set
		want float64
	}{
		{"both empty", NewSet(), NewSet(), 0.0},
		{"one empty", NewSet("java"), NewSet(), 0.0},
		{"disjoint", NewSet("java", "spring"), NewSet("photoshop"), 0.0},
		{"identical", NewSet("java", "spring"), NewSet("spring", "java"), 1.0},
		{"partial overlap", NewSet("java", "spring"), NewSet("java", "docker"), 1.0 / 3.0},
		{"subset", NewSet("go"), NewSet("go", "rust"), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Jaccard(tt.a, tt.b)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("Jaccard = %v, want %v", got, tt.want)
			}
			// Jaccard is symmetric.
			if rev := Jaccard(tt.b, tt.a); math.Abs(rev-got) > tolerance {
				t.Errorf("Jaccard not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestSet_IntersectDiff(t *testing.T) {
	user := NewSet("java")
	candidate := NewSet("java", "python", "docker")

	common := candidate.Intersect(user)
	if len(common) != 1 || !common.Contains("java") {
		t.Errorf("Intersect = %v", common.Sorted())
	}

	complementary := candidate.Diff(user)
	if len(complementary) != 2 {
		t.Errorf("Diff size = %d, want 2", len(complementary))
	}
	want := []string{"docker", "python"}
	if !reflect.DeepEqual(complementary.Sorted(), want) {
		t.Errorf("Diff = %v, want %v", complementary.Sorted(), want)
	}
}

func TestNewSet_skipsEmpty(t *testing.T) {
	s := NewSet("", "go", "")
	if len(s) != 1 || !s.Contains("go") {
		t.Errorf("NewSet = %v", s.Sorted())
	}
}

func TestSet_SortedEmpty(t *testing.T) {
	if got := NewSet().Sorted(); got != nil {
		t.Errorf("Sorted() on empty set = %v, want nil", got)
	}
}

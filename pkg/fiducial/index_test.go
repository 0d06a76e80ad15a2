package fiducial

import (
	"math"
	"reflect"
	"testing"

	"niftiviewer/internal/models"
	"niftiviewer/pkg/navigation"
)

func TestIndexNextPrev(t *testing.T) {
	g := models.SliceGeometry{Spacing: 1, Origin: 0}
	rng := navigation.SliceRange{Min: 0, Max: 20}
	points := []Point{
		{ID: "a", Z: 12},
		{ID: "b", Z: 3},
		{ID: "c", Z: 3.2},
		{ID: "d", Z: 50}, // outside the volume
	}
	
	ix := NewIndex(points, g, rng)
	
	if want := []int{3, 12}; !reflect.DeepEqual(ix.Slices(), want) {
		t.Fatalf("Expected landmark slices %v, got %v", want, ix.Slices())
	}
	
	if next, ok := ix.Next(0); !ok || next != 3 {
		t.Errorf("Expected next 3 from 0, got %d (%v)", next, ok)
	}
	if next, ok := ix.Next(3); !ok || next != 12 {
		t.Errorf("Expected next 12 from 3, got %d (%v)", next, ok)
	}
	if _, ok := ix.Next(12); ok {
		t.Error("Expected no landmark slice after 12")
	}
	if prev, ok := ix.Prev(12); !ok || prev != 3 {
		t.Errorf("Expected prev 3 from 12, got %d (%v)", prev, ok)
	}
	if prev, ok := ix.Prev(20); !ok || prev != 12 {
		t.Errorf("Expected prev 12 from 20, got %d (%v)", prev, ok)
	}
	if _, ok := ix.Prev(3); ok {
		t.Error("Expected no landmark slice before 3")
	}
}

func TestIndexNearest(t *testing.T) {
	g := models.SliceGeometry{Spacing: 1, Origin: 0}
	rng := navigation.SliceRange{Min: 0, Max: 99}
	points := []Point{{ID: "low", Z: 5}, {ID: "mid", Z: 40}, {ID: "high", Z: 90}}
	
	ix := NewIndex(points, g, rng)
	
	p, dist, ok := ix.Nearest(47)
	if !ok {
		t.Fatal("Expected a nearest landmark")
	}
	if p.ID != "mid" {
		t.Errorf("Expected nearest landmark mid, got %s", p.ID)
	}
	if math.Abs(dist-7) > 1e-9 {
		t.Errorf("Expected distance 7, got %f", dist)
	}
	
	// Building the tree must not reorder the caller's points
	if points[0].ID != "low" || points[2].ID != "high" {
		t.Errorf("Index reordered input points: %+v", points)
	}
}

func TestIndexEmpty(t *testing.T) {
	ix := NewIndex(nil, models.SliceGeometry{Spacing: 1}, navigation.SliceRange{Min: 0, Max: 5})
	
	if _, _, ok := ix.Nearest(0); ok {
		t.Error("Expected no nearest landmark for empty index")
	}
	if _, ok := ix.Next(0); ok {
		t.Error("Expected no next slice for empty index")
	}
}

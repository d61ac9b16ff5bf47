package kdtree

import (
	"math"
	"sort"
	"testing"

	"github.com/go-sod/glove/internal/geom"
)

func bruteKNN(points []Point, q Point, k int) []float64 {
	dists := make([]float64, 0, len(points))
	for _, p := range points {
		d, _ := geom.EuclideanDistance(q.Points(), p.Points())
		dists = append(dists, d)
	}
	sort.Float64s(dists)
	if k < len(dists) {
		dists = dists[:k]
	}
	return dists
}

func TestTree_KNN(t *testing.T) {
	t.Parallel()
	var points []Point
	for x := 0; x < 7; x++ {
		for y := 0; y < 5; y++ {
			points = append(points, geom.Point{float64(x) * 1.3, float64(y)*0.7 + float64(x%2)*0.11, float64((x*y)%4) * 0.5})
		}
	}
	tree := New(geom.EuclideanDistance)
	tree.Build(points...)

	queries := []geom.Point{{0, 0, 0}, {3.3, 1.9, 0.4}, {10, 10, 10}, {-2, 0.5, 1}}
	for _, q := range queries {
		for _, k := range []int{1, 3, 5, len(points) + 3} {
			got, err := tree.KNN(q, k)
			if err != nil {
				t.Fatalf("KNN(%v, %d) error: %v", q, k, err)
			}
			expected := bruteKNN(points, q, k)
			if len(got) != len(expected) {
				t.Fatalf("KNN(%v, %d) length got: %d, expected: %d", q, k, len(got), len(expected))
			}
			for i := range got {
				if math.Abs(got[i].Distance-expected[i]) > 1e-9 {
					t.Errorf("KNN(%v, %d)[%d] distance got: %f, expected: %f", q, k, i, got[i].Distance, expected[i])
				}
			}
		}
	}
}

func TestTree_KNNErrors(t *testing.T) {
	t.Parallel()
	tree := New(geom.EuclideanDistance)
	if _, err := tree.KNN(geom.Point{1, 2}, 1); err == nil {
		t.Errorf("empty tree must return an error")
	}
	tree.Build(geom.Point{1, 2}, geom.Point{0, 5})
	if _, err := tree.KNN(geom.Point{1, 2}, 0); err == nil {
		t.Errorf("k=0 must return an error")
	}
	if _, err := tree.KNN(geom.Point{1, 2, 3}, 1); err == nil {
		t.Errorf("dimension mismatch must return an error")
	}
}

package geom

import "testing"

func TestPoint_Equal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        Point
		p1       Point
		expected bool
	}{
		{name: "positive", p: Point{10, 10}, p1: Point{10, 10}, expected: true},
		{name: "negative", p: Point{10, 10}, p1: Point{11, 10}, expected: false},
		{name: "size", p: Point{10, 10}, p1: Point{10}, expected: false},
	}
	for _, test := range tests {
		if test.p.Equal(test.p1) != test.expected {
			t.Errorf("%s: the comparison of points, got: %v, expected: %v", test.name, test.p.Equal(test.p1), test.expected)
		}
	}
}

func TestPoint_Copy(t *testing.T) {
	t.Parallel()
	p := NewPoint([]float64{1, 2, 3})
	c := p.Copy()
	c[0] = 42
	if p.Dim(0) != 1 {
		t.Errorf("copy must not share storage, got %v", p)
	}
	if c.Dimensions() != 3 {
		t.Errorf("dimensions got %d, expected 3", c.Dimensions())
	}
}

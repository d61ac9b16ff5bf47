/*
 * Copyright 2020 Dennis Kuhnert
 * Copyright 2020 Ivanov Nikita
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */
package kdtree

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-sod/glove/pkg/pqueue"
)

type Point interface {
	Dim(idx int) float64
	Dimensions() int
	Points() []float64
}

// Neighbor is a point found by KNN together with its distance to the query.
type Neighbor struct {
	Point    Point
	Distance float64
}

func New(distFn func(vec, vec1 []float64) (float64, error)) *Tree {
	return &Tree{distFn: distFn}
}

// Tree is a static k-d tree. It is built once and then only read, so it is
// safe for concurrent KNN queries.
type Tree struct {
	root   *node
	distFn func(vec, vec1 []float64) (float64, error)
}

func (t *Tree) Build(points ...Point) {
	cp := make([]Point, len(points))
	copy(cp, points)
	t.root = buildTreeRecursive(cp, 0)
}

// KNN returns up to k points nearest to p ordered by ascending distance.
func (t *Tree) KNN(p Point, k int) ([]Neighbor, error) {
	if t.root == nil || k <= 0 {
		return nil, fmt.Errorf("root is nil or K is 0")
	}
	if p.Dimensions() != t.root.Key.Dimensions() {
		return nil, fmt.Errorf("query has %d dimensions, tree has %d", p.Dimensions(), t.root.Key.Dimensions())
	}

	queue := pqueue.New(pqueue.WithCap(uint(k)))
	if err := t.knn(p, t.root, 0, queue); err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, queue.Len())
	for i := range neighbors {
		v, d := queue.Seek(i)
		neighbors[i] = Neighbor{Point: v.(Point), Distance: d}
	}
	return neighbors, nil
}

func (t *Tree) knn(p Point, current *node, dim int, queue *pqueue.Queue) error {
	if current == nil {
		return nil
	}
	distance, err := t.distFn(p.Points(), current.Key.Points())
	if err != nil {
		return fmt.Errorf("compute knn error: %w", err)
	}
	queue.Push(current.Key, distance)

	near, far := current.Left, current.Right
	if p.Dim(dim) >= current.Key.Dim(dim) {
		near, far = far, near
	}
	next := (dim + 1) % p.Dimensions()
	if err := t.knn(p, near, next, queue); err != nil {
		return err
	}
	if !queue.Full() || math.Abs(p.Dim(dim)-current.Key.Dim(dim)) < worstDistance(queue) {
		return t.knn(p, far, next, queue)
	}
	return nil
}

type node struct {
	Key   Point
	Left  *node
	Right *node
}

type sortPoints struct {
	dim    int
	points []Point
}

func (b *sortPoints) Len() int {
	return len(b.points)
}

func (b *sortPoints) Less(i, j int) bool {
	return b.points[i].Dim(b.dim) < b.points[j].Dim(b.dim)
}

func (b *sortPoints) Swap(i, j int) {
	b.points[i], b.points[j] = b.points[j], b.points[i]
}

func buildTreeRecursive(points []Point, dim int) *node {
	if len(points) == 0 {
		return nil
	}
	if len(points) == 1 {
		return &node{Key: points[0]}
	}

	sort.Stable(&sortPoints{dim: dim, points: points})
	mid := len(points) / 2
	// equal keys must live on the right so the search descends consistently
	for mid > 0 && points[mid-1].Dim(dim) == points[mid].Dim(dim) {
		mid--
	}
	root := points[mid]
	nextDim := (dim + 1) % root.Dimensions()
	return &node{
		Key:   root,
		Left:  buildTreeRecursive(points[:mid], nextDim),
		Right: buildTreeRecursive(points[mid+1:], nextDim),
	}
}

func worstDistance(queue *pqueue.Queue) float64 {
	if queue.Len() == 0 {
		return math.MaxFloat64
	}
	_, distance := queue.Seek(queue.Len() - 1)
	return distance
}

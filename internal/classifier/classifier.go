// Package classifier is the inference port of the collector: a pre-loaded,
// read-only k-nearest-neighbours model mapping a reading to a gesture class.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/go-sod/glove/internal/classifier/artifact"
	"github.com/go-sod/glove/internal/geom"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/pkg/container/kdtree"
	"github.com/go-sod/glove/pkg/pqueue"
)

// DefaultK matches the neighbour count the gesture model is trained with.
const DefaultK = 3

var ErrDimensionMismatch = errors.New("reading dimension does not match model")

// Classifier never mutates its model and is safe for concurrent use.
type Classifier interface {
	Predict(r reading.Reading) (reading.Prediction, error)
	Dimensions() int
}

type ProvideFn func(context.Context) (Classifier, error)

type Option func(*knn)

func WithK(k int) Option {
	return func(c *knn) {
		c.k = k
	}
}

func WithDistance(fn geom.DistanceFn) Option {
	return func(c *knn) {
		c.distFn = fn
	}
}

func WithAlg(alg AlgType) Option {
	return func(c *knn) {
		c.alg = alg
	}
}

// Sample is a labelled training point.
type Sample struct {
	Features geom.Point
	Label    reading.Prediction
}

func (s Sample) Dim(idx int) float64 { return s.Features[idx] }

func (s Sample) Dimensions() int { return len(s.Features) }

func (s Sample) Points() []float64 { return s.Features }

type searcher interface {
	KNN(p kdtree.Point, k int) ([]kdtree.Neighbor, error)
}

var _ Classifier = (*knn)(nil)

type knn struct {
	k      int
	dims   int
	alg    AlgType
	distFn geom.DistanceFn
	search searcher
}

func New(samples []Sample, opts ...Option) (*knn, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("unable creating knn instance, no samples")
	}
	c := &knn{k: DefaultK, alg: AlgTypeKDTree, distFn: geom.EuclideanDistance, dims: samples[0].Dimensions()}
	for _, opt := range opts {
		opt(c)
	}
	if c.k <= 0 {
		return nil, fmt.Errorf("unable creating knn instance, k must be positive, got %d", c.k)
	}
	points := make([]kdtree.Point, len(samples))
	for i, s := range samples {
		if s.Dimensions() != c.dims {
			return nil, fmt.Errorf("unable creating knn instance, sample %d has %d dimensions, expected %d", i, s.Dimensions(), c.dims)
		}
		points[i] = s
	}
	switch c.alg {
	case AlgTypeBrute:
		c.search = &brute{points: points, distFn: c.distFn}
	case AlgTypeKDTree:
		tree := kdtree.New(c.distFn)
		tree.Build(points...)
		c.search = tree
	default:
		return nil, fmt.Errorf("unable to create alg with alg type %s", c.alg)
	}
	return c, nil
}

func (c *knn) Dimensions() int {
	return c.dims
}

// Predict returns the majority label among the k nearest samples. Ties go to
// the smallest label.
func (c *knn) Predict(r reading.Reading) (reading.Prediction, error) {
	if r.Dimensions() != c.dims {
		return 0, fmt.Errorf("%w: got %d values, model has %d", ErrDimensionMismatch, r.Dimensions(), c.dims)
	}
	neighbors, err := c.search.KNN(r, c.k)
	if err != nil {
		return 0, fmt.Errorf("unable compute KNN: %w", err)
	}
	if len(neighbors) == 0 {
		return 0, fmt.Errorf("unable to predict, no neighbours found")
	}
	votes := map[reading.Prediction]int{}
	for _, n := range neighbors {
		votes[n.Point.(Sample).Label]++
	}
	labels := make([]reading.Prediction, 0, len(votes))
	for label := range votes {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if votes[labels[i]] != votes[labels[j]] {
			return votes[labels[i]] > votes[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels[0], nil
}

type brute struct {
	points []kdtree.Point
	distFn geom.DistanceFn
}

func (b *brute) KNN(p kdtree.Point, k int) ([]kdtree.Neighbor, error) {
	pq := pqueue.New(pqueue.WithCap(uint(k)))
	for _, item := range b.points {
		distance, err := b.distFn(p.Points(), item.Points())
		if err != nil {
			return nil, fmt.Errorf("unable to compute distance between %v and %v: %w", p.Points(), item.Points(), err)
		}
		pq.Push(item, distance)
	}
	neighbors := make([]kdtree.Neighbor, pq.Len())
	for i := range neighbors {
		v, d := pq.Seek(i)
		neighbors[i] = kdtree.Neighbor{Point: v.(kdtree.Point), Distance: d}
	}
	return neighbors, nil
}

// Summary describes a loaded model for logs.
type Summary struct {
	Path       string
	Samples    int
	Classes    int
	Dimensions int
	K          int
	Distance   string
	Alg        AlgType
}

// Load reads the model artifact named in cfg and builds the classifier. Any
// failure here must stop the process before the collector starts.
func Load(ctx context.Context, cfg *Config) (Classifier, error) {
	logger := logging.FromContext(ctx)
	model, err := artifact.ReadFile(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	k := int(model.K)
	if cfg.K > 0 {
		k = cfg.K
	}
	if k <= 0 {
		k = DefaultK
	}
	distance := geom.DistanceFuncType(model.Distance)
	if cfg.Distance != "" {
		distance = cfg.Distance
	}
	distFn, err := geom.DistanceFuncFor(distance)
	if err != nil {
		return nil, fmt.Errorf("unable provide distance function: %w", err)
	}

	samples := make([]Sample, len(model.Samples))
	classes := map[int32]struct{}{}
	for i, s := range model.Samples {
		samples[i] = Sample{Features: geom.NewPoint(s.Features), Label: reading.Prediction(s.Label)}
		classes[s.Label] = struct{}{}
	}
	c, err := New(samples, WithK(k), WithDistance(distFn), WithAlg(cfg.Alg))
	if err != nil {
		return nil, err
	}

	summary := Summary{
		Path:       cfg.ModelPath,
		Samples:    len(samples),
		Classes:    len(classes),
		Dimensions: c.Dimensions(),
		K:          k,
		Distance:   string(distance),
		Alg:        cfg.Alg,
	}
	logger.Infof("Loaded gesture model %s: %d samples, %d classes, k=%d", summary.Path, summary.Samples, summary.Classes, summary.K)
	logger.Debugf("model summary: %s", spew.Sdump(summary))
	return c, nil
}

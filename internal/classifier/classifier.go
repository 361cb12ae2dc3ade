// Package classifier invokes the trained clothing model and interprets its
// output distribution. The model itself is opaque; anything implementing
// Model can be injected.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/abrigobot/abrigobot/internal/features"
)

// Classifier errors.
var (
	// ErrSchemaMismatch means the feature row does not match the model's
	// expected input schema. This is a build-time contract violation, not a
	// user error, and aborts the request.
	ErrSchemaMismatch = errors.New("feature row does not match model schema")

	// ErrInvalidDistribution means the model output is not a probability
	// simplex over its class list.
	ErrInvalidDistribution = errors.New("model output is not a probability distribution")
)

const simplexTolerance = 1e-6

// Model is the scoring interface the trained classifier is injected behind.
type Model interface {
	// Classes returns the model's class labels in its stable output order.
	Classes() []string

	// FeatureNames returns the ordered input schema the model was trained on.
	FeatureNames() []string

	// Score returns one probability per class for the given row.
	Score(ctx context.Context, row *features.Row) ([]float64, error)
}

// ClassProb pairs a clothing class with its predicted probability.
type ClassProb struct {
	Class       string
	Probability float64
}

// Result is the model's output distribution ranked by probability. Consumers
// read only the first two ranks.
type Result struct {
	Ranked []ClassProb
}

// Top returns the rank-1 class.
func (r *Result) Top() ClassProb {
	return r.Ranked[0]
}

// Second returns the rank-2 class.
func (r *Result) Second() ClassProb {
	return r.Ranked[1]
}

// Predict validates the row against the model's schema, scores it, and ranks
// the output. Probability ties keep the model's class order.
func Predict(ctx context.Context, model Model, row *features.Row) (*Result, error) {
	if err := checkSchema(model.FeatureNames(), row.Names()); err != nil {
		return nil, err
	}

	probs, err := model.Score(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("scoring row: %w", err)
	}

	classes := model.Classes()
	if len(probs) != len(classes) {
		return nil, fmt.Errorf("%w: %d probabilities for %d classes", ErrInvalidDistribution, len(probs), len(classes))
	}
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes, got %d", ErrInvalidDistribution, len(classes))
	}

	sum := 0.0
	for _, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: probability %v out of range", ErrInvalidDistribution, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > simplexTolerance {
		return nil, fmt.Errorf("%w: probabilities sum to %v", ErrInvalidDistribution, sum)
	}

	ranked := make([]ClassProb, len(classes))
	for i, class := range classes {
		ranked[i] = ClassProb{Class: class, Probability: probs[i]}
	}
	// Stable sort keeps the model's class order for equal probabilities.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})

	return &Result{Ranked: ranked}, nil
}

// checkSchema verifies that row field names equal the expected schema, in
// order. Schema drift is a silent-failure risk, so the mismatch detail names
// the first diverging position.
func checkSchema(expected, got []string) error {
	if len(expected) != len(got) {
		return fmt.Errorf("%w: expected %d features, got %d", ErrSchemaMismatch, len(expected), len(got))
	}
	for i := range expected {
		if expected[i] != got[i] {
			return fmt.Errorf("%w: position %d expected %q, got %q", ErrSchemaMismatch, i, expected[i], got[i])
		}
	}
	return nil
}

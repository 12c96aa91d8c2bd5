package grouping

import (
	"github.com/KaramelBytes/setlist-cli/internal/similarity"
	"github.com/KaramelBytes/setlist-cli/pkg/logger"
)

// DefaultThreshold is the similarity score required to merge two identifiers.
const DefaultThreshold = 80.0

type options struct {
	policy    Policy
	threshold float64
	scorer    similarity.Scorer
	log       logger.Logger
}

// Option configures Build.
type Option func(*options)

// WithPolicy selects the grouping algorithm.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithThreshold sets the minimum score (0-100) for two identifiers to share a group.
func WithThreshold(t float64) Option {
	return func(o *options) { o.threshold = t }
}

// WithScorer overrides the similarity function. nil keeps similarity.Ratio.
func WithScorer(s similarity.Scorer) Option {
	return func(o *options) {
		if s != nil {
			o.scorer = s
		}
	}
}

// WithLogger enables debug logging of individual match decisions.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

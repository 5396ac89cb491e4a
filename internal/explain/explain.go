// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package explain

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/soil"
)

// topFeatureCount is how many features the rendered rationale names.
const topFeatureCount = 3

// Attribution is one feature's contribution to the prediction.
type Attribution struct {
	// Index is the feature's position in canonical order.
	Index int `json:"index"`

	// Feature is the canonical feature name.
	Feature string `json:"feature"`

	// Value is the raw (unscaled) feature value.
	Value float64 `json:"value"`

	// Score is the attribution magnitude; positive scores support the
	// prediction.
	Score float64 `json:"score"`
}

// Explanation is the rendered rationale for one recommendation.
type Explanation struct {
	// Text is the natural-language explanation shown to the farmer.
	Text string `json:"text"`

	// TopFeatures lists the most influential features by absolute
	// attribution, descending. Empty when Fallback is true.
	TopFeatures []Attribution `json:"top_features,omitempty"`

	// Fallback is true when attribution failed and the template
	// explanation was used instead.
	Fallback bool `json:"fallback"`
}

// Generator turns predictions into explanations against one registry.
type Generator struct {
	registry *ml.Registry
}

// NewGenerator creates an explanation generator.
func NewGenerator(registry *ml.Registry) *Generator {
	return &Generator{registry: registry}
}

// Generate produces an explanation for the primary prediction. It never
// fails: any attribution error degrades to the template fallback.
func (g *Generator) Generate(ctx context.Context, in *soil.Input, pred *ml.DualPrediction) Explanation {
	expl, err := g.Compute(in, pred)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("crop", pred.Primary).
			Msg("attribution failed, using fallback explanation")
		return Fallback(in, pred.Primary)
	}
	return *expl
}

// Compute produces the attribution-ranked explanation, or an error the
// caller is expected to resolve via Fallback.
func (g *Generator) Compute(in *soil.Input, pred *ml.DualPrediction) (*Explanation, error) {
	explainer, err := ForKind(g.registry, pred.PrimaryKind)
	if err != nil {
		return nil, err
	}

	scores, err := explainer.Attributions(pred.Scaled, pred.PrimaryClass)
	if err != nil {
		return nil, err
	}
	if len(scores) != soil.FeatureCount {
		return nil, fmt.Errorf("attribution width %d, want %d", len(scores), soil.FeatureCount)
	}

	top := rankFeatures(in.Features(), scores)

	return &Explanation{
		Text:        renderText(in, pred.Primary, top),
		TopFeatures: top,
	}, nil
}

// Fallback renders the template explanation that restates the raw soil
// values. It cannot fail.
func Fallback(in *soil.Input, label string) Explanation {
	return Explanation{
		Text:     renderFallback(in, label),
		Fallback: true,
	}
}

// rankFeatures orders all features by absolute attribution descending,
// ties broken by canonical feature order, and keeps the top three.
func rankFeatures(values [soil.FeatureCount]float64, scores []float64) []Attribution {
	ranked := make([]Attribution, soil.FeatureCount)
	for i := 0; i < soil.FeatureCount; i++ {
		ranked[i] = Attribution{
			Index:   i,
			Feature: soil.FeatureNames[i],
			Value:   values[i],
			Score:   scores[i],
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return math.Abs(ranked[a].Score) > math.Abs(ranked[b].Score)
	})

	return ranked[:topFeatureCount]
}

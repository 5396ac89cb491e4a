// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/securecrop/securecrop/internal/audit"
	"github.com/securecrop/securecrop/internal/explain"
	"github.com/securecrop/securecrop/internal/guide"
	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/metrics"
	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/notify"
	"github.com/securecrop/securecrop/internal/screening"
	"github.com/securecrop/securecrop/internal/soil"
)

// Stores is the persistence surface the pipeline needs.
type Stores interface {
	InsertReading(ctx context.Context, r *soil.Reading) error
	InsertRecommendation(ctx context.Context, rec *Recommendation) error
}

// ExplanationSource produces the natural-language rationale. It never
// fails; attribution errors degrade to the template fallback.
type ExplanationSource interface {
	Generate(ctx context.Context, in *soil.Input, pred *ml.DualPrediction) explain.Explanation
}

// GuideSource produces the structured farming guide. It never fails;
// any upstream problem yields the static fallback guide.
type GuideSource interface {
	Generate(ctx context.Context, crop string, in *soil.Input) *guide.Guide
}

// AuditNotifier forwards severe screening outcomes to an external sink.
type AuditNotifier interface {
	SendAudit(ctx context.Context, ev *notify.AuditEvent) error
}

// Result is the full pipeline output returned to the caller.
type Result struct {
	State          State               `json:"state"`
	Reading        *soil.Reading       `json:"reading"`
	Recommendation *Recommendation     `json:"recommendation"`
	Prediction     *ml.DualPrediction  `json:"prediction"`
	Explanation    explain.Explanation `json:"explanation"`
	Guide          *guide.Guide        `json:"farming_guide"`
	PreCheck       *screening.PreResult
	PostCheck      *screening.PostResult
}

// Pipeline runs a soil input through screening, prediction, audit,
// explanation and persistence.
type Pipeline struct {
	stores    Stores
	screener  *screening.Screener
	recorder  *audit.Recorder
	registry  *ml.Registry
	explainer ExplanationSource
	guideSrc  GuideSource
	notifier  AuditNotifier
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(stores Stores, screener *screening.Screener, recorder *audit.Recorder,
	registry *ml.Registry, explainer ExplanationSource, guideSrc GuideSource) *Pipeline {
	return &Pipeline{
		stores:    stores,
		screener:  screener,
		recorder:  recorder,
		registry:  registry,
		explainer: explainer,
		guideSrc:  guideSrc,
	}
}

// SetAuditNotifier attaches an optional sink for flagged post-check
// outcomes. Delivery failures are logged, never surfaced to the caller.
func (p *Pipeline) SetAuditNotifier(n AuditNotifier) {
	p.notifier = n
}

// Run executes the full pipeline for one input. A range violation
// returns screening.ErrOutOfRange after recording the rejection; no
// reading or recommendation is persisted. Model or store failures abort
// with an error. Explanation and guide failures never abort: the
// recommendation is persisted with fallback content.
func (p *Pipeline) Run(ctx context.Context, in *soil.Input, ownerID string) (*Result, error) {
	res := &Result{State: StateReceived}

	start := time.Now()
	pre, err := p.screener.PreCheck(ctx, in)
	metrics.RecordPipelineStage("pre_check", time.Since(start))
	if err != nil {
		if errors.Is(err, screening.ErrOutOfRange) {
			res.State = StateRejected
			metrics.PipelineRequests.WithLabelValues("rejected").Inc()
		} else {
			res.State = StateFailed
			metrics.PipelineRequests.WithLabelValues("failed").Inc()
		}
		return res, err
	}
	res.State = StatePreChecked
	res.PreCheck = pre
	if pre.AnomalyDetected {
		metrics.AnomaliesDetected.Inc()
	}

	start = time.Now()
	pred, err := p.registry.PredictDual(in.Features())
	metrics.RecordPipelineStage("predict", time.Since(start))
	if err != nil {
		res.State = StateFailed
		metrics.PipelineRequests.WithLabelValues("failed").Inc()
		return res, err
	}
	res.State = StatePredicted
	res.Prediction = pred
	metrics.PredictionConfidence.Observe(pred.Confidence)
	if !pred.ModelsAgree {
		metrics.ModelsDisagreed.Inc()
		logging.Ctx(ctx).Info().
			Str("rf", pred.ForestCrop).
			Str("nb", pred.BayesCrop).
			Str("primary", pred.Primary).
			Msg("classifiers disagreed")
	}

	reading := &soil.Reading{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Nitrogen:      in.Nitrogen,
		Phosphorus:    in.Phosphorus,
		Potassium:     in.Potassium,
		PH:            in.PH,
		Moisture:      in.Moisture,
		Temperature:   in.Temperature,
		IntegrityHash: pre.IntegrityHash,
		CreatedAt:     time.Now().UTC(),
	}

	start = time.Now()
	if err := p.stores.InsertReading(ctx, reading); err != nil {
		metrics.RecordPipelineStage("persist_reading", time.Since(start))
		res.State = StateFailed
		metrics.PipelineRequests.WithLabelValues("failed").Inc()
		return res, err
	}
	metrics.RecordPipelineStage("persist_reading", time.Since(start))
	res.Reading = reading

	// The pre-check entry was written before the reading existed; link
	// it now that the row is in place.
	if err := p.recorder.AttachReading(ctx, pre.Entry, reading.ID); err != nil {
		res.State = StateFailed
		metrics.PipelineRequests.WithLabelValues("failed").Inc()
		return res, err
	}

	start = time.Now()
	post, err := p.screener.PostCheck(ctx, reading.ID, pred.Primary, pred.Confidence)
	metrics.RecordPipelineStage("post_check", time.Since(start))
	if err != nil {
		res.State = StateFailed
		metrics.PipelineRequests.WithLabelValues("failed").Inc()
		return res, err
	}
	res.PostCheck = post

	// Flagged outcomes go to the notifier; the sink decides which
	// severities leave the process.
	if p.notifier != nil && post.Status != audit.StatusOK {
		ev := &notify.AuditEvent{
			ReadingID: reading.ID,
			CheckType: string(audit.CheckTypePost),
			Status:    string(post.Status),
			Details:   post.Details,
		}
		if err := p.notifier.SendAudit(ctx, ev); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("reading_id", reading.ID).
				Msg("audit webhook delivery failed")
		}
	}

	start = time.Now()
	res.Explanation = p.explainer.Generate(ctx, in, pred)
	metrics.RecordPipelineStage("explain", time.Since(start))
	if res.Explanation.Fallback {
		metrics.ExplanationFallbacks.Inc()
	}
	res.State = StateExplained

	start = time.Now()
	res.Guide = p.guideSrc.Generate(ctx, pred.Primary, in)
	metrics.RecordPipelineStage("guide", time.Since(start))

	alternative, altConfidence := pred.Alternative()
	rec := &Recommendation{
		ID:                    uuid.NewString(),
		ReadingID:             reading.ID,
		CropName:              pred.Primary,
		Confidence:            pred.Confidence,
		ModelsAgree:           pred.ModelsAgree,
		AlternativeCrop:       alternative,
		AlternativeConfidence: altConfidence,
		Explanation:           res.Explanation.Text,
		ExplanationFallback:   res.Explanation.Fallback,
		CreatedAt:             time.Now().UTC(),
	}

	start = time.Now()
	if err := p.stores.InsertRecommendation(ctx, rec); err != nil {
		metrics.RecordPipelineStage("persist_recommendation", time.Since(start))
		res.State = StateFailed
		metrics.PipelineRequests.WithLabelValues("failed").Inc()
		return res, err
	}
	metrics.RecordPipelineStage("persist_recommendation", time.Since(start))
	res.Recommendation = rec
	res.State = StatePersisted
	metrics.PipelineRequests.WithLabelValues("success").Inc()

	logging.Ctx(ctx).Info().
		Str("reading_id", reading.ID).
		Str("crop", rec.CropName).
		Float64("confidence", rec.Confidence).
		Bool("models_agree", rec.ModelsAgree).
		Str("audit_status", string(post.Status)).
		Msg("recommendation created")

	return res, nil
}

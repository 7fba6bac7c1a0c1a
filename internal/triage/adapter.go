package triage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/observability"
)

// DefaultTimeout bounds a single classifier call.
const DefaultTimeout = 20 * time.Second

// Adapter calls the classifier once and always returns a usable Result.
type Adapter struct {
	classifier Classifier
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAdapter wraps classifier. A nil classifier means every draft gets the fallback.
func NewAdapter(classifier Classifier, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{classifier: classifier, timeout: timeout, logger: logger, metrics: metrics}
}

// Triage classifies draft. It is never retried and never fails.
func (a *Adapter) Triage(ctx context.Context, draft Draft) Result {
	if a.classifier == nil {
		a.metrics.Inc("triage_fallback")
		return Fallback(draft)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.classifier.Classify(ctx, draft)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		} else if errors.Is(err, ErrUnparseable) {
			reason = "unparseable"
		}
		a.logger.Warn("triage classifier failed; using fallback",
			zap.String("reason", reason),
			zap.Error(err))
		a.metrics.Inc("triage_fallback")
		return Fallback(draft)
	}

	a.metrics.Inc("triage_classified")
	return Normalize(raw)
}

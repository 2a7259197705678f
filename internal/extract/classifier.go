package extract

import (
	"context"
	"sort"

	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/taxonomy"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Classifier is the fixed capability contract for the statistical model:
// one score map per input text, technique id to probability. The engine
// treats the model as opaque; swapping implementations never touches
// reconciliation logic.
type Classifier interface {
	// Name returns the provider name.
	Name() string

	// Classify scores a batch of texts. The result has one entry per
	// input, in input order.
	Classify(ctx context.Context, texts []string) ([]map[string]float64, error)

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// Adapter wraps a Classifier with batching, thresholding and graceful
// degradation. It is the pipeline's only suspension point.
type Adapter struct {
	provider  Classifier // nil when the model stage is disabled
	tax       *taxonomy.Taxonomy
	threshold float64
	batchSize int
	retries   int
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewAdapter creates a classifier adapter. A nil provider disables the
// model stage; every document is then degraded by definition.
func NewAdapter(provider Classifier, tax *taxonomy.Taxonomy, cfg model.ClassifierConfig, logger *zap.Logger) *Adapter {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.30
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{
		provider:  provider,
		tax:       tax,
		threshold: cfg.Threshold,
		batchSize: cfg.BatchSize,
		retries:   cfg.MaxRetries,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:    logger,
	}
}

// Enabled reports whether a model provider is configured.
func (a *Adapter) Enabled() bool {
	return a.provider != nil
}

// Extract scores every text unit and emits model-sourced candidates for
// scores above the threshold. Classifier failure does not abort the
// document: already-computed candidates are returned with degraded=true.
// Cancellation likewise stops scheduling further calls and keeps partial
// results.
func (a *Adapter) Extract(ctx context.Context, doc *model.Document) (candidates []model.Candidate, degraded bool) {
	if a.provider == nil {
		return nil, true
	}

	if !a.provider.IsAvailable(ctx) {
		a.logger.Warn("classifier unreachable, skipping model stage",
			zap.String("provider", a.provider.Name()),
			zap.String("document", doc.ID))
		return nil, true
	}

	for start := 0; start < len(doc.Units); start += a.batchSize {
		if ctx.Err() != nil {
			a.logger.Warn("classification cancelled, keeping partial results",
				zap.String("document", doc.ID))
			return candidates, true
		}

		end := start + a.batchSize
		if end > len(doc.Units) {
			end = len(doc.Units)
		}
		batch := doc.Units[start:end]

		texts := make([]string, len(batch))
		for i, u := range batch {
			texts[i] = u.Text
		}

		scores, err := a.classifyWithRetry(ctx, texts)
		if err != nil {
			cerr := &model.ClassifierUnavailableError{Provider: a.provider.Name(), Err: err}
			a.logger.Warn("classifier degraded",
				zap.String("document", doc.ID),
				zap.Error(cerr))
			return candidates, true
		}

		for i, unitScores := range scores {
			if i >= len(batch) {
				break
			}
			candidates = append(candidates, a.toCandidates(batch[i], unitScores)...)
		}
	}

	return candidates, false
}

// classifyWithRetry retries transient classifier failures once per
// configured retry, pacing calls through the rate limiter.
func (a *Adapter) classifyWithRetry(ctx context.Context, texts []string) ([]map[string]float64, error) {
	var lastErr error
	for attempt := 0; attempt <= a.retries; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		scores, err := a.provider.Classify(ctx, texts)
		if err == nil {
			return scores, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// toCandidates converts one unit's score map into candidates. Scores for
// ids outside the taxonomy are rejected with a warning. Output order is
// stable regardless of map iteration.
func (a *Adapter) toCandidates(unit model.TextUnit, scores map[string]float64) []model.Candidate {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []model.Candidate
	for _, id := range ids {
		score := scores[id]
		if score < a.threshold {
			continue
		}
		if score > 1 {
			score = 1
		}
		if err := a.tax.ResolveTechnique(id); err != nil {
			a.logger.Warn("rejected model prediction",
				zap.String("id", id),
				zap.String("text_unit", unit.ID))
			continue
		}
		out = append(out, model.Candidate{
			TechniqueID: id,
			TacticIDs:   a.tax.TacticsFor(id),
			Source:      model.SourceModel,
			TextUnitID:  unit.ID,
			Confidence:  score,
			Evidence:    "model:" + a.provider.Name(),
		})
	}
	return out
}

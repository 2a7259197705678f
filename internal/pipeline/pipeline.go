// Package pipeline orchestrates the full analysis: normalize, extract in
// parallel, link malware, sequence, reconcile, report.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/styx8114/threatlens/internal/cache"
	"github.com/styx8114/threatlens/internal/extract"
	"github.com/styx8114/threatlens/internal/ingest"
	"github.com/styx8114/threatlens/internal/kb"
	"github.com/styx8114/threatlens/internal/link"
	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/reconcile"
	"github.com/styx8114/threatlens/internal/taxonomy"
	"github.com/styx8114/threatlens/internal/temporal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs the complete analysis for one document. Safe for concurrent
// use; every stage is stateless or internally synchronized.
type Pipeline struct {
	cfg        *model.Config
	normalizer *ingest.Normalizer
	fetcher    *ingest.Fetcher
	rules      *extract.RuleExtractor
	adapter    *extract.Adapter
	linker     *link.Linker
	sequencer  *temporal.Sequencer
	engine     *reconcile.Engine
	cache      cache.Cache
	logger     *zap.Logger
}

// NewPipeline wires the stages from configuration. The classifier provider
// comes from the factory; a disabled provider leaves the adapter running in
// degraded mode.
func NewPipeline(cfg *model.Config, tax *taxonomy.Taxonomy, base *kb.KnowledgeBase, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ruleSet, err := extract.NewRuleSet(tax)
	if err != nil {
		return nil, fmt.Errorf("build rule set: %w", err)
	}

	provider, err := extract.NewClassifier(cfg.Classifier, cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			c = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		}
	}

	return &Pipeline{
		cfg:        cfg,
		normalizer: ingest.NewNormalizer(cfg.Ingest, logger),
		fetcher:    ingest.NewFetcher(cfg.HTTP, c, logger),
		rules:      extract.NewRuleExtractor(ruleSet, cfg.Rules, logger),
		adapter:    extract.NewAdapter(provider, tax, cfg.Classifier, logger),
		linker:     link.NewLinker(base, cfg.Link, logger),
		sequencer:  temporal.NewSequencer(logger),
		engine:     reconcile.NewEngine(tax, cfg.Reconcile, logger),
		cache:      c,
		logger:     logger,
	}, nil
}

// Analyze dispatches on input shape: URLs are fetched, anything else is a
// local file path. This is the entry point batch workers call.
func (p *Pipeline) Analyze(ctx context.Context, input string) (*model.Report, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return p.AnalyzeURL(ctx, input)
	}
	return p.AnalyzeFile(ctx, input)
}

// AnalyzeFile reads a report from disk and analyzes it.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.AnalyzeText(ctx, "", path, string(data))
}

// AnalyzeURL fetches a published report and analyzes its visible text.
func (p *Pipeline) AnalyzeURL(ctx context.Context, url string) (*model.Report, error) {
	text, err := p.fetcher.FetchText(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return p.AnalyzeText(ctx, "", url, text)
}

// AnalyzeText runs the full pipeline over raw report text. The same text
// always yields the same assertion set; results are cached by content hash
// when caching is enabled.
func (p *Pipeline) AnalyzeText(ctx context.Context, docID, source, raw string) (*model.Report, error) {
	key := cache.ContentKey([]byte(raw))
	if p.cache != nil {
		if data, ok := p.cache.Get(key); ok {
			var cached model.Report
			if err := json.Unmarshal(data, &cached); err == nil {
				p.logger.Debug("analysis cache hit", zap.String("source", source))
				return &cached, nil
			}
			_ = p.cache.Delete(key)
		}
	}

	doc, err := p.normalizer.Normalize(docID, source, raw)
	if err != nil {
		return nil, err
	}

	// Rule and model extraction are independent; run them concurrently.
	// The classifier reports degradation instead of failing the analysis.
	var (
		ruleCands  []model.Candidate
		modelCands []model.Candidate
		degraded   bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ruleCands = p.rules.Extract(doc)
		return nil
	})
	g.Go(func() error {
		modelCands, degraded = p.adapter.Extract(gctx, doc)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancelled context already degraded the model stage; the rule and
	// malware-link results still make a usable partial report.

	present := make([]model.Candidate, 0, len(ruleCands)+len(modelCands))
	present = append(present, ruleCands...)
	present = append(present, modelCands...)

	linkCands, mentions := p.linker.Link(doc, present)

	seq := p.sequencer.Sequence(doc)

	all := append(present, linkCands...)
	stats := model.Stats{
		TextUnits:             len(doc.Units),
		RuleCandidates:        len(ruleCands),
		ModelCandidates:       len(modelCands),
		MalwareLinkCandidates: len(linkCands),
	}

	assertions, err := p.engine.Reconcile(all, mentions, seq, &stats)
	if err != nil {
		return nil, err
	}

	report := &model.Report{
		DocumentID:      doc.ID,
		Source:          source,
		AnalyzedAt:      time.Now().UTC(),
		Degraded:        degraded,
		Assertions:      assertions,
		MalwareMentions: mentions,
		Anchors:         seq.Anchors,
		Stats:           stats,
	}

	p.logger.Info("analysis complete",
		zap.String("source", source),
		zap.Int("text_units", stats.TextUnits),
		zap.Int("assertions", len(assertions)),
		zap.Bool("degraded", degraded))

	// A report cut short by cancellation is not worth remembering.
	if p.cache != nil && ctx.Err() == nil {
		if data, err := json.Marshal(report); err == nil {
			_ = p.cache.Set(key, data, p.cfg.Cache.TTL)
		}
	}
	return report, nil
}

// Fetcher exposes the underlying fetcher for callers that need raw bytes,
// such as the taxonomy update command.
func (p *Pipeline) Fetcher() *ingest.Fetcher {
	return p.fetcher
}

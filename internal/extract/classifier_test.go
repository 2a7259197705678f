package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/taxonomy"
)

// mockClassifier returns canned scores and counts calls.
type mockClassifier struct {
	scores      map[string]map[string]float64 // keyed by input text
	err         error
	failures    int // fail this many calls before succeeding
	calls       int
	unavailable bool
}

func (m *mockClassifier) Name() string { return "mock" }

func (m *mockClassifier) Classify(ctx context.Context, texts []string) ([]map[string]float64, error) {
	m.calls++
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("transient failure")
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([]map[string]float64, len(texts))
	for i, text := range texts {
		out[i] = m.scores[text]
	}
	return out, nil
}

func (m *mockClassifier) IsAvailable(ctx context.Context) bool { return !m.unavailable }

func adapterConfig() model.ClassifierConfig {
	return model.ClassifierConfig{
		Threshold:         0.30,
		BatchSize:         2,
		MaxRetries:        1,
		RequestsPerSecond: 1000,
	}
}

func TestAdapterThreshold(t *testing.T) {
	text := "The implant injected itself into a running process."
	mock := &mockClassifier{
		scores: map[string]map[string]float64{
			text: {"T1055": 0.72, "T1566": 0.05},
		},
	}
	a := NewAdapter(mock, taxonomy.New(), adapterConfig(), nil)

	cands, degraded := a.Extract(context.Background(), testDoc(text))
	if degraded {
		t.Fatal("should not be degraded")
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate above threshold, got %d: %+v", len(cands), cands)
	}
	c := cands[0]
	if c.TechniqueID != "T1055" || c.Source != model.SourceModel {
		t.Errorf("candidate = %+v", c)
	}
	if c.Confidence != 0.72 {
		t.Errorf("confidence = %v", c.Confidence)
	}
	if c.Span != nil {
		t.Error("model candidates carry no span")
	}
	if c.Evidence != "model:mock" {
		t.Errorf("evidence = %q", c.Evidence)
	}
}

func TestAdapterClampsOverflowingScore(t *testing.T) {
	text := "Overflowing score from a misbehaving provider."
	mock := &mockClassifier{
		scores: map[string]map[string]float64{
			text: {"T1055": 1.7},
		},
	}
	a := NewAdapter(mock, taxonomy.New(), adapterConfig(), nil)

	cands, _ := a.Extract(context.Background(), testDoc(text))
	if len(cands) != 1 || cands[0].Confidence != 1.0 {
		t.Fatalf("expected score clamped to 1.0, got %+v", cands)
	}
}

func TestAdapterRejectsUnknownIDs(t *testing.T) {
	text := "Prediction for an id outside the enumeration."
	mock := &mockClassifier{
		scores: map[string]map[string]float64{
			text: {"T9999": 0.95, "T1055": 0.60},
		},
	}
	a := NewAdapter(mock, taxonomy.New(), adapterConfig(), nil)

	cands, _ := a.Extract(context.Background(), testDoc(text))
	if len(cands) != 1 || cands[0].TechniqueID != "T1055" {
		t.Fatalf("unknown id must be dropped, got %+v", cands)
	}
}

func TestAdapterDegradedOnFailure(t *testing.T) {
	mock := &mockClassifier{err: errors.New("connection refused")}
	a := NewAdapter(mock, taxonomy.New(), adapterConfig(), nil)

	cands, degraded := a.Extract(context.Background(), testDoc("Some report text for classification."))
	if !degraded {
		t.Fatal("expected degraded=true on provider failure")
	}
	if len(cands) != 0 {
		t.Errorf("no candidates expected, got %d", len(cands))
	}
}

func TestAdapterSkipsUnreachableProvider(t *testing.T) {
	mock := &mockClassifier{unavailable: true}
	a := NewAdapter(mock, taxonomy.New(), adapterConfig(), nil)

	cands, degraded := a.Extract(context.Background(), testDoc("Some report text for classification."))
	if !degraded {
		t.Fatal("unreachable provider must degrade the document")
	}
	if len(cands) != 0 {
		t.Errorf("no candidates expected, got %d", len(cands))
	}
	if mock.calls != 0 {
		t.Errorf("no classify calls expected against an unreachable provider, got %d", mock.calls)
	}
}

func TestAdapterRetriesTransientFailure(t *testing.T) {
	text := "A single transient failure should be retried."
	mock := &mockClassifier{
		failures: 1,
		scores: map[string]map[string]float64{
			text: {"T1055": 0.55},
		},
	}
	a := NewAdapter(mock, taxonomy.New(), adapterConfig(), nil)

	cands, degraded := a.Extract(context.Background(), testDoc(text))
	if degraded {
		t.Fatal("retry should have recovered")
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if mock.calls != 2 {
		t.Errorf("expected 2 calls (1 failure + 1 retry), got %d", mock.calls)
	}
}

func TestAdapterKeepsPartialResultsOnCancel(t *testing.T) {
	unit1 := "First unit scored before cancellation."
	unit2 := "Second unit scored before cancellation."
	unit3 := "Third unit never scored."
	unit4 := "Fourth unit never scored."

	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockClassifier{
		scores: map[string]map[string]float64{
			unit1: {"T1055": 0.9},
			unit3: {"T1486": 0.9},
		},
	}
	// Cancel after the first batch by wrapping Classify.
	cancelling := &cancelAfterFirst{inner: mock, cancel: cancel}
	a := NewAdapter(cancelling, taxonomy.New(), adapterConfig(), nil)

	cands, degraded := a.Extract(ctx, testDoc(unit1, unit2, unit3, unit4))
	if !degraded {
		t.Fatal("cancellation must mark the result degraded")
	}
	if len(cands) != 1 || cands[0].TechniqueID != "T1055" {
		t.Fatalf("expected the first batch's candidate only, got %+v", cands)
	}
}

type cancelAfterFirst struct {
	inner  Classifier
	cancel context.CancelFunc
	done   bool
}

func (c *cancelAfterFirst) Name() string { return c.inner.Name() }

func (c *cancelAfterFirst) Classify(ctx context.Context, texts []string) ([]map[string]float64, error) {
	out, err := c.inner.Classify(ctx, texts)
	if !c.done {
		c.done = true
		c.cancel()
	}
	return out, err
}

func (c *cancelAfterFirst) IsAvailable(ctx context.Context) bool { return true }

func TestAdapterDisabledProvider(t *testing.T) {
	a := NewAdapter(nil, taxonomy.New(), adapterConfig(), nil)
	cands, degraded := a.Extract(context.Background(), testDoc("Anything at all."))
	if !degraded || cands != nil {
		t.Fatalf("nil provider: want (nil, true), got (%v, %v)", cands, degraded)
	}
}

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/util"
)

// HTTPClassifier implements the Classifier interface against a generic
// inference server hosting the fine-tuned multi-label model. The server
// exposes POST /classify taking {"texts": [...]} and returning one score
// map per input.
type HTTPClassifier struct {
	baseURL    string
	httpClient *http.Client
	config     model.ClassifierConfig
}

// Inference server wire structures.
type inferRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model,omitempty"`
}

type inferResponse struct {
	Results []map[string]float64 `json:"results"`
}

type inferError struct {
	Error string `json:"error"`
}

// NewHTTPClassifier creates a classifier backed by an inference endpoint.
func NewHTTPClassifier(config model.ClassifierConfig, httpProxy, httpsProxy, noProxy string) (*HTTPClassifier, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8601"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second // Local model servers can be slow on first load
	}

	return &HTTPClassifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
			},
		},
		config: config,
	}, nil
}

// Name returns the provider name.
func (p *HTTPClassifier) Name() string {
	return "http"
}

// IsAvailable checks that the inference server answers its health endpoint.
func (p *HTTPClassifier) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/health", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inference server check failed (request creation): %v\n", err)
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inference server check failed (connection to %s): %v\n", p.baseURL, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Inference server check failed (HTTP %d from %s)\n", resp.StatusCode, p.baseURL)
		return false
	}
	return true
}

// Classify posts one batch to the inference server.
func (p *HTTPClassifier) Classify(ctx context.Context, texts []string) ([]map[string]float64, error) {
	body, err := json.Marshal(inferRequest{Texts: texts, Model: p.config.Model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/classify", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr inferError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("inference server error: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("inference server returned HTTP %d", resp.StatusCode)
	}

	var parsed inferResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Results) != len(texts) {
		return nil, fmt.Errorf("inference server returned %d results for %d inputs", len(parsed.Results), len(texts))
	}

	return parsed.Results, nil
}

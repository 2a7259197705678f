package extract

import (
	"fmt"
	"strings"

	"github.com/styx8114/threatlens/internal/model"
)

// NewClassifier creates a classifier provider based on configuration.
// An empty provider name disables the model stage and returns nil.
func NewClassifier(cfg model.ClassifierConfig, httpCfg model.HTTPConfig) (Classifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIClassifier(cfg)

	case "http", "scibert":
		return NewHTTPClassifier(cfg, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown classifier provider: %s (supported: openai, http)", cfg.Provider)
	}
}

package model

import "fmt"

// MalformedInputError means the source text is unusable: empty, whitespace
// only, or below the minimum token count. Terminal for the document,
// reported to the caller, never retried.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

// ClassifierUnavailableError means the statistical classifier could not be
// reached or failed to respond. The document degrades to rule and
// malware-link candidates only; the report is annotated degraded=true.
type ClassifierUnavailableError struct {
	Provider string
	Err      error
}

func (e *ClassifierUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classifier %q unavailable: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("classifier %q unavailable", e.Provider)
}

func (e *ClassifierUnavailableError) Unwrap() error {
	return e.Err
}

// UnknownTaxonomyIDError means a technique or tactic id does not resolve
// against the fixed ATT&CK enumeration. Rejected at the point of creation,
// never silently coerced.
type UnknownTaxonomyIDError struct {
	ID string
}

func (e *UnknownTaxonomyIDError) Error() string {
	return fmt.Sprintf("unknown taxonomy id: %s", e.ID)
}

// KnowledgeBaseLoadError means the malware knowledge base failed validation
// at load time. Fatal at process start: the engine must not serve documents
// with an invalid knowledge base.
type KnowledgeBaseLoadError struct {
	Path string
	Err  error
}

func (e *KnowledgeBaseLoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("knowledge base load failed (%s): %v", e.Path, e.Err)
	}
	return fmt.Sprintf("knowledge base load failed: %v", e.Err)
}

func (e *KnowledgeBaseLoadError) Unwrap() error {
	return e.Err
}

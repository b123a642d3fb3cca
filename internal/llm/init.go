package llm

import (
	"fmt"

	"github.com/lectern-ai/lectern/internal/core"
)

// InitResult is the explicit two-state outcome of model initialization:
// either a ready service or an unavailability reason. Components that hold
// one check Ready() instead of relying on a caught-and-swallowed startup
// failure.
type InitResult struct {
	service core.LLMService
	reason  string
}

// Ready wraps a successfully initialized model service.
func Ready(service core.LLMService) InitResult {
	return InitResult{service: service}
}

// Unavailable records why the model could not be initialized.
func Unavailable(reason string) InitResult {
	if reason == "" {
		reason = "not configured"
	}
	return InitResult{reason: reason}
}

// Service returns the model service, or core.ErrGenerationUnavailable with
// the recorded reason when there is none.
func (r InitResult) Service() (core.LLMService, error) {
	if r.service == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrGenerationUnavailable, r.reason)
	}
	return r.service, nil
}

// Ready reports whether a model service is available.
func (r InitResult) Ready() bool {
	return r.service != nil
}

// Reason returns the unavailability reason, empty when ready.
func (r InitResult) Reason() string {
	return r.reason
}

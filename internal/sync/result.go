package sync

import "sync"

// ProviderResult is the per-provider slice of a sync run.
type ProviderResult struct {
	Provider string   `json:"provider"`
	Synced   int      `json:"synced"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Result aggregates a sync run across providers. Passes run concurrently, so
// all mutation goes through the locked helpers.
type Result struct {
	SuccessCount int                        `json:"success_count"`
	FailedCount  int                        `json:"failed_count"`
	PerProvider  map[string]*ProviderResult `json:"per_provider"`
	Errors       []string                   `json:"errors,omitempty"`

	mu sync.Mutex
}

func newResult() *Result {
	return &Result{PerProvider: make(map[string]*ProviderResult)}
}

func (r *Result) provider(name string) *ProviderResult {
	pr, ok := r.PerProvider[name]
	if !ok {
		pr = &ProviderResult{Provider: name}
		r.PerProvider[name] = pr
	}
	return pr
}

func (r *Result) recordSuccess(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SuccessCount++
	r.provider(provider).Synced++
}

func (r *Result) recordSkip(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider(provider).Skipped++
}

func (r *Result) recordFailure(provider, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FailedCount++
	pr := r.provider(provider)
	pr.Failed++
	pr.Errors = append(pr.Errors, errMsg)
	r.Errors = append(r.Errors, provider+": "+errMsg)
}

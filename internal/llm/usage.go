package llm

import (
	"context"
	"time"

	"github.com/studorama/studorama/internal/storage"
)

// UsageTotals is the persisted running account of LLM consumption, shown by
// the stats command. It lives under a non-preserved key: a version bump
// resets the counters.
type UsageTotals struct {
	Requests     int            `json:"requests"`
	Failures     int            `json:"failures"`
	InputTokens  int            `json:"inputTokens"`
	OutputTokens int            `json:"outputTokens"`
	CostUSD      float64        `json:"costUsd"`
	ByPurpose    map[string]int `json:"byPurpose"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// UsageProvider is a decorator that accumulates per-request token usage and
// estimated cost into the key-value store. Accounting failures never fail
// the request.
type UsageProvider struct {
	inner Provider
	kv    *storage.KV
}

// WithUsageTracking wraps a Provider with usage accounting.
func WithUsageTracking(p Provider, kv *storage.KV) Provider {
	return &UsageProvider{inner: p, kv: kv}
}

func (u *UsageProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := u.inner.Generate(ctx, req)

	totals := storage.Get(ctx, u.kv, storage.KeyLLMUsage, UsageTotals{})
	if totals.ByPurpose == nil {
		totals.ByPurpose = make(map[string]int)
	}

	totals.Requests++
	totals.ByPurpose[PurposeFrom(ctx)]++
	totals.UpdatedAt = time.Now()

	if err != nil {
		totals.Failures++
	} else {
		totals.InputTokens += resp.Usage.InputTokens
		totals.OutputTokens += resp.Usage.OutputTokens
		model := resp.Model
		if model == "" {
			model = u.inner.ModelID()
		}
		if cost := LookupCost(model); cost != nil {
			totals.CostUSD += cost.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
	}

	storage.Set(ctx, u.kv, storage.KeyLLMUsage, totals)
	return resp, err
}

func (u *UsageProvider) ModelID() string {
	return u.inner.ModelID()
}

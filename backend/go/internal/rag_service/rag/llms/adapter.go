package llms

import (
	"context"

	"DocChat/backend/go/internal/llm"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/pkg/resilience"
)

// Adapter runs a provider LLM client under the retry policy.
type Adapter struct {
	client llm.LLM
	policy resilience.Policy
}

// NewAdapter creates a new adapter.
func NewAdapter(client llm.LLM, policy resilience.Policy) *Adapter {
	return &Adapter{client: client, policy: policy}
}

func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	return resilience.Call(ctx, a.policy, func(ctx context.Context) (string, error) {
		return a.client.Generate(ctx, prompt)
	})
}

// compile-time check to ensure Adapter implements the LLM interface
var _ interfaces.LLM = (*Adapter)(nil)

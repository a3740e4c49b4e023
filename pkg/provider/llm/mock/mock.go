// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to feed controlled oracle responses without a
// live LLM backend. All fields are safe to set before calling any method;
// mutating them during a concurrent call is the caller's responsibility.
//
// Example:
//
//	p := &mock.Provider{Responses: []string{"Active"}}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/karienad/dental-insurance-ai-agent/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
//
// Responses are selected in priority order: CompleteFunc when set, otherwise
// the next unconsumed entry of Responses, otherwise Response. Set Err to
// inject a failure.
type Provider struct {
	mu sync.Mutex

	// CompleteFunc, when non-nil, fully controls the reply. It receives the
	// request so tests can branch on prompt content.
	CompleteFunc func(req llm.CompletionRequest) (string, error)

	// Responses is a queue of reply contents consumed one per Complete call.
	Responses []string

	// Response is the fallback reply content when Responses is exhausted.
	Response string

	// Err, if non-nil, is returned as the error from Complete.
	Err error

	// Calls records every invocation of Complete in order.
	Calls []CompleteCall

	next int
}

// Complete records the call and returns the configured reply.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, CompleteCall{Ctx: ctx, Req: req})

	if p.Err != nil {
		return nil, p.Err
	}
	if p.CompleteFunc != nil {
		content, err := p.CompleteFunc(req)
		if err != nil {
			return nil, err
		}
		return &llm.CompletionResponse{Content: content}, nil
	}

	content := p.Response
	if p.next < len(p.Responses) {
		content = p.Responses[p.next]
		p.next++
	}
	return &llm.CompletionResponse{Content: content}, nil
}

// Reset clears all recorded calls and rewinds the response queue. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
	p.next = 0
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)

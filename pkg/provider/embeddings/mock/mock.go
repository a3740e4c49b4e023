// Package mock provides a test double for the embeddings.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/karienad/dental-insurance-ai-agent/pkg/provider/embeddings"
)

// Provider is a mock implementation of embeddings.Provider.
//
// EmbedFunc, when set, controls the vector for every input text; otherwise
// Vector is returned for all inputs. Set Err to inject a failure.
type Provider struct {
	mu sync.Mutex

	// EmbedFunc maps an input text to its vector.
	EmbedFunc func(text string) []float32

	// Vector is the fallback vector returned when EmbedFunc is nil.
	Vector []float32

	// Dims is returned by Dimensions. Defaults to len(Vector) when zero.
	Dims int

	// Err, if non-nil, is returned from Embed and EmbedBatch.
	Err error

	// EmbedCalls records every text passed to Embed or EmbedBatch in order.
	EmbedCalls []string
}

// Embed records the call and returns the configured vector.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.EmbedCalls = append(p.EmbedCalls, text)
	if p.Err != nil {
		return nil, p.Err
	}
	return p.vectorFor(text), nil
}

// EmbedBatch records the calls and returns one vector per text.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.EmbedCalls = append(p.EmbedCalls, texts...)
	if p.Err != nil {
		return nil, p.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vectorFor(t)
	}
	return out, nil
}

// Dimensions returns Dims, or the fallback vector's length when unset.
func (p *Provider) Dimensions() int {
	if p.Dims > 0 {
		return p.Dims
	}
	return len(p.Vector)
}

// ModelID returns a fixed identifier for logging in tests.
func (p *Provider) ModelID() string { return "mock-embeddings" }

func (p *Provider) vectorFor(text string) []float32 {
	if p.EmbedFunc != nil {
		return p.EmbedFunc(text)
	}
	return p.Vector
}

// Ensure Provider implements embeddings.Provider at compile time.
var _ embeddings.Provider = (*Provider)(nil)

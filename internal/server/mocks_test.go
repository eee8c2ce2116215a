package server

import (
	"context"
	"sync"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
)

// --- Mocks ---

type mockFusion struct {
	fuseFunc func(ctx context.Context, payload domain.Payload, apiKey string) (*domain.ImageResponse, error)
}

func (m *mockFusion) Fuse(ctx context.Context, payload domain.Payload, apiKey string) (*domain.ImageResponse, error) {
	if m.fuseFunc != nil {
		return m.fuseFunc(ctx, payload, apiKey)
	}
	return &domain.ImageResponse{Data: []byte("fused"), MimeType: "image/png"}, nil
}

type mockImagine struct {
	mu      sync.Mutex
	apiKeys []string
}

func (m *mockImagine) Imagine(ctx context.Context, prompt string, opts domain.ImagineOptions, apiKey string) (*domain.ImageResponse, error) {
	m.mu.Lock()
	m.apiKeys = append(m.apiKeys, apiKey)
	m.mu.Unlock()
	return &domain.ImageResponse{Data: []byte("imagined"), MimeType: opts.WithDefaults().OutputMIMEType}, nil
}

func (m *mockImagine) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.apiKeys...)
}

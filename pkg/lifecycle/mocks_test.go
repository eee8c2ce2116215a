package lifecycle

import (
	"context"
	"sync"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
)

// --- Mocks ---

type statusEntry struct {
	Message string
	IsError bool
}

// recordingView は View への呼び出しを記録するのだ。
type recordingView struct {
	mu               sync.Mutex
	controlsDisabled bool
	triggerEnabled   bool
	triggerHistory   []bool
	statuses         []statusEntry
	prompt           string
	image            *domain.ImageResponse
	hideCount        int
}

func (v *recordingView) SetControlsDisabled(disabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controlsDisabled = disabled
}

func (v *recordingView) SetTriggerEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.triggerEnabled = enabled
	v.triggerHistory = append(v.triggerHistory, enabled)
}

func (v *recordingView) SetStatus(message string, isError bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, statusEntry{Message: message, IsError: isError})
}

func (v *recordingView) SetPrompt(prompt string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prompt = prompt
}

func (v *recordingView) ShowImage(img domain.ImageResponse) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.image = &img
}

func (v *recordingView) HideImage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.image = nil
	v.hideCount++
}

func (v *recordingView) lastStatus() statusEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return statusEntry{}
	}
	return v.statuses[len(v.statuses)-1]
}

func (v *recordingView) trigger() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.triggerEnabled
}

type mockFusion struct {
	fuseFunc func(ctx context.Context, payload domain.Payload, apiKey string) (*domain.ImageResponse, error)
	calls    int
}

func (m *mockFusion) Fuse(ctx context.Context, payload domain.Payload, apiKey string) (*domain.ImageResponse, error) {
	m.calls++
	if m.fuseFunc != nil {
		return m.fuseFunc(ctx, payload, apiKey)
	}
	return &domain.ImageResponse{Data: []byte("img"), MimeType: "image/png"}, nil
}

type mockImagine struct {
	imagineFunc func(ctx context.Context, prompt string, opts domain.ImagineOptions, apiKey string) (*domain.ImageResponse, error)
	calls       int
}

func (m *mockImagine) Imagine(ctx context.Context, prompt string, opts domain.ImagineOptions, apiKey string) (*domain.ImageResponse, error) {
	m.calls++
	if m.imagineFunc != nil {
		return m.imagineFunc(ctx, prompt, opts, apiKey)
	}
	return &domain.ImageResponse{Data: []byte("img"), MimeType: "image/jpeg"}, nil
}

type mockSelector struct {
	err   error
	calls int
}

func (m *mockSelector) SelectKey(ctx context.Context) error {
	m.calls++
	return m.err
}

func staticKey(key string) CredentialSource {
	return CredentialFunc(func() string { return key })
}

// blockingSelector は release が閉じられるまで SelectKey を返さないのだ。
type blockingSelector struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSelector) SelectKey(ctx context.Context) error {
	close(b.entered)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package generator

import (
	"context"

	"google.golang.org/genai"
)

// --- Mocks ---

type mockModels struct {
	generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	generateImagesFunc  func(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateContentFunc != nil {
		return m.generateContentFunc(ctx, model, contents, config)
	}
	return &genai.GenerateContentResponse{}, nil
}

func (m *mockModels) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	if m.generateImagesFunc != nil {
		return m.generateImagesFunc(ctx, model, prompt, config)
	}
	return &genai.GenerateImagesResponse{}, nil
}

// dialerFor は渡された API キーを記録しつつ固定のモックを返すダイアラーなのだ。
func dialerFor(m Models, gotKey *string) ModelDialer {
	return func(ctx context.Context, apiKey string) (Models, error) {
		if gotKey != nil {
			*gotKey = apiKey
		}
		return m, nil
	}
}

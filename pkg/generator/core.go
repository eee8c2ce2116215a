package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiImageCore は API キーごとの接続を担当する基盤クラスです。
type GeminiImageCore struct {
	dial ModelDialer
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore を初期化します。
// dial が nil なら genai のクライアントを使います。
func NewGeminiImageCore(dial ModelDialer) *GeminiImageCore {
	if dial == nil {
		dial = DialGemini
	}
	return &GeminiImageCore{dial: dial}
}

// DialGemini は Gemini API バックエンドの genai クライアントを作るのだ。
func DialGemini(ctx context.Context, apiKey string) (Models, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// open は接続を開き、失敗を分類済みのエラーで返します。
func (c *GeminiImageCore) open(ctx context.Context, apiKey string) (Models, error) {
	models, err := c.dial(ctx, apiKey)
	if err != nil {
		return nil, wrapFailure(fmt.Errorf("クライアントの初期化に失敗しました: %w", err))
	}
	if models == nil {
		return nil, wrapFailure(fmt.Errorf("クライアントの初期化に失敗しました: models is nil"))
	}
	return models, nil
}

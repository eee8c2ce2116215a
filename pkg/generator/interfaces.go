package generator

import (
	"context"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"google.golang.org/genai"
)

// Models は genai.Models のうち、このキットが使う呼び出しだけを抜き出したインターフェースです。
// *genai.Models がそのまま満たします。
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ModelDialer は API キーごとに生成サービスへの接続を開きます。
type ModelDialer func(ctx context.Context, apiKey string) (Models, error)

// FusionGenerator は複数画像の融合生成を行うのだ。
type FusionGenerator interface {
	Fuse(ctx context.Context, payload domain.Payload, apiKey string) (*domain.ImageResponse, error)
}

// ImagineGenerator はテキストのみから画像を生成します。
type ImagineGenerator interface {
	Imagine(ctx context.Context, prompt string, opts domain.ImagineOptions, apiKey string) (*domain.ImageResponse, error)
}

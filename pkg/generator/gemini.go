package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-fusion-kit/pkg/adapters"
	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"google.golang.org/genai"
)

// GeminiGenerator は、複数画像の融合生成(Fuse)と
// テキストからの画像生成(Imagine)の両方を担当する統合ジェネレーターです。
// リトライもタイムアウトも持たず、1回の呼び出しで1つの結果を返すのだ。
type GeminiGenerator struct {
	core         *GeminiImageCore
	fusionModel  string
	imagineModel string
}

// NewGeminiGenerator は GeminiGenerator を初期化するのだ。モデル名が空ならデフォルトを使います。
func NewGeminiGenerator(core *GeminiImageCore, fusionModel, imagineModel string) (*GeminiGenerator, error) {
	if core == nil {
		return nil, fmt.Errorf("core (GeminiImageCore) is required")
	}
	if fusionModel == "" {
		fusionModel = DefaultFusionModel
	}
	if imagineModel == "" {
		imagineModel = DefaultImagineModel
	}
	return &GeminiGenerator{
		core:         core,
		fusionModel:  fusionModel,
		imagineModel: imagineModel,
	}, nil
}

// Fuse はテキスト＋複数画像のペイロードを送り、画像のみの応答を要求します。
func (g *GeminiGenerator) Fuse(ctx context.Context, payload domain.Payload, apiKey string) (*domain.ImageResponse, error) {
	models, err := g.core.open(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	parts := adapters.ToParts(payload)
	slog.InfoContext(ctx, "Gemini融合生成をリクエストします", "model", g.fusionModel, "total_parts", len(parts))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{modalityImage},
	}

	resp, err := models.GenerateContent(ctx, g.fusionModel, contents, config)
	if err != nil {
		return nil, wrapFailure(fmt.Errorf("Gemini融合生成エラー: %w", err))
	}

	out, err := adapters.ParseContentResponse(resp, DefaultFusionMIMEType)
	if err != nil {
		return nil, wrapFailure(err)
	}

	return &domain.ImageResponse{
		Data:     out.Data,
		MimeType: out.MimeType,
	}, nil
}

// Imagine はテキストプロンプトと設定だけで画像を生成し、最初の1枚を返します。
func (g *GeminiGenerator) Imagine(ctx context.Context, prompt string, opts domain.ImagineOptions, apiKey string) (*domain.ImageResponse, error) {
	models, err := g.core.open(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	opts = opts.WithDefaults()
	slog.InfoContext(ctx, "Imagen生成をリクエストします",
		"model", g.imagineModel,
		"number_of_images", opts.NumberOfImages,
		"aspect_ratio", opts.AspectRatio)

	config := &genai.GenerateImagesConfig{
		NumberOfImages: int32(opts.NumberOfImages),
		OutputMIMEType: opts.OutputMIMEType,
		AspectRatio:    opts.AspectRatio,
	}

	resp, err := models.GenerateImages(ctx, g.imagineModel, prompt, config)
	if err != nil {
		return nil, wrapFailure(fmt.Errorf("Imagen生成エラー: %w", err))
	}

	out, err := adapters.ParseImagesResponse(resp, opts.OutputMIMEType)
	if err != nil {
		return nil, wrapFailure(err)
	}

	return &domain.ImageResponse{
		Data:     out.Data,
		MimeType: out.MimeType,
	}, nil
}

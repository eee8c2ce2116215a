package adapters

import (
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"google.golang.org/genai"
)

// ImageOutput はプロジェクト固有のドメインに依存しない汎用的なレスポンス構造体です。
type ImageOutput struct {
	Data     []byte
	MimeType string
}

// ParseContentResponse は GenerateContent のレスポンスを解析して ImageOutput に変換します。
// 候補が無い、画像パーツが無い、ブロックされた場合は domain.ErrEmptyResult を返すのだ。
func ParseContentResponse(resp *genai.GenerateContentResponse, defaultMIME string) (*ImageOutput, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: 応答が空です", domain.ErrEmptyResult)
	}

	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" && pf.BlockReason != genai.BlockedReasonUnspecified {
		slog.Warn("プロンプトがブロックされました", "block_reason", pf.BlockReason, "message", pf.BlockReasonMessage)
		return nil, fmt.Errorf("%w (BlockReason: %s)", domain.ErrEmptyResult, pf.BlockReason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, fmt.Errorf("%w: 候補がありません", domain.ErrEmptyResult)
	}

	// 最初の候補 (Candidate) のみを利用する。
	candidate := resp.Candidates[0]

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = defaultMIME
			}
			return &ImageOutput{Data: part.InlineData.Data, MimeType: mimeType}, nil
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w (FinishReason: %s)", domain.ErrEmptyResult, candidate.FinishReason)
	}

	return nil, fmt.Errorf("%w: 画像データが見つかりませんでした", domain.ErrEmptyResult)
}

// ParseImagesResponse は GenerateImages のレスポンスから最初の画像を取り出します。
func ParseImagesResponse(resp *genai.GenerateImagesResponse, defaultMIME string) (*ImageOutput, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("%w: 生成画像が0件です", domain.ErrEmptyResult)
	}

	for i, img := range resp.GeneratedImages {
		if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
			if img != nil && img.RAIFilteredReason != "" {
				slog.Warn("生成画像がフィルタされました", "index", i, "reason", img.RAIFilteredReason)
			}
			continue
		}
		mimeType := img.Image.MIMEType
		if mimeType == "" {
			mimeType = defaultMIME
		}
		return &ImageOutput{Data: img.Image.ImageBytes, MimeType: mimeType}, nil
	}

	return nil, fmt.Errorf("%w: 画像データが見つかりませんでした", domain.ErrEmptyResult)
}

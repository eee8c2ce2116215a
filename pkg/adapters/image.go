package adapters

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"google.golang.org/genai"
)

// ToParts はドメインのペイロードを Gemini API のパーツ列に順序を保って変換します。
func ToParts(p domain.Payload) []*genai.Part {
	segments := p.Segments()
	parts := make([]*genai.Part, 0, len(segments))
	for i, seg := range segments {
		if !seg.IsInline() {
			parts = append(parts, &genai.Part{Text: seg.Text})
			continue
		}
		part := ToPart(seg.Data, seg.MIMEType)
		if part == nil {
			slog.Warn("画像セグメントを変換できませんでした", "index", i, "mime_type", seg.MIMEType)
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

// ToPart はバイト列を genai.Part (InlineData) に変換します。
// mimeType が空なら中身から判定し、画像でなければ nil を返すのだ。
func ToPart(data []byte, mimeType string) *genai.Part {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     data,
		},
	}
}

package server

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
)

//go:embed web/*.html
var webFS embed.FS

type roleField struct {
	ID       string
	Label    string
	Required bool
}

type pageData struct {
	Variant          string
	Roles            []roleField
	PrintQualityFlag string
	MaxUploadBytes   int64
}

func parsePages() (*template.Template, error) {
	t, err := template.ParseFS(webFS, "web/*.html")
	if err != nil {
		return nil, fmt.Errorf("ページテンプレートの読み込みに失敗しました: %w", err)
	}
	return t, nil
}

func (s *Server) handlePage(name, variant string) http.HandlerFunc {
	roles := make([]roleField, 0, len(domain.Roles()))
	for _, r := range domain.Roles() {
		roles = append(roles, roleField{ID: string(r), Label: r.Label(), Required: r.Required()})
	}
	data := pageData{
		Variant:          variant,
		Roles:            roles,
		PrintQualityFlag: domain.FlagPrintQuality,
		MaxUploadBytes:   s.cfg.MaxUploadBytes,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
			slog.ErrorContext(r.Context(), "ページの描画に失敗しました", "page", name, "error", err)
		}
	}
}

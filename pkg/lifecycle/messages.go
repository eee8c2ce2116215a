package lifecycle

import (
	"strings"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
)

// UI に表示するステータス文言です。
const (
	StatusGenerating              = "Generating image..."
	StatusSuccess                 = "Image generated successfully."
	StatusMissingCredential       = "API key is not configured. Please add your API key."
	StatusMissingFusionInput      = "Please provide at least a Style and a Base image."
	StatusMissingPrompt           = "Please enter a prompt."
	StatusEmptyResult             = "Error: No image was generated. The prompt may have been blocked."
	StatusAuthorization           = "Error: The API key is invalid or lacks permission."
	StatusSelectValidKey          = "Please select a valid API key."
	StatusKeySelectionUnavailable = "Key selection is unavailable here. Set GEMINI_API_KEY to a valid key and try again."
	StatusUnknownError            = "Error: An unknown error occurred."
)

// MessageFor は失敗の分類からユーザー向けの文言を作ります。
func MessageFor(kind domain.ErrorKind, err error) string {
	switch kind {
	case domain.KindNone:
		return ""
	case domain.KindMissingCredential:
		return StatusMissingCredential
	case domain.KindMissingRequiredInput:
		return StatusMissingFusionInput
	case domain.KindEmptyResult:
		return StatusEmptyResult
	case domain.KindAuthorization:
		return StatusAuthorization
	}
	if err == nil {
		return StatusUnknownError
	}
	// 表示にはサービス側の元の文言だけを使う
	msg := strings.TrimPrefix(err.Error(), domain.ErrTransport.Error()+": ")
	if msg == "" {
		return StatusUnknownError
	}
	return "Error: " + msg
}

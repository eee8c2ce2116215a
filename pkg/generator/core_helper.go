package generator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"google.golang.org/genai"
)

// authorizationSubstrings はサービスのエラーメッセージに現れる認可失敗の文言です。
// サービスのバージョンで変わり得るため、構造化コードが取れない場合の補助としてのみ使います。
var authorizationSubstrings = []string{
	"api key not valid",
	"api_key_invalid",
	"requested entity was not found",
	"permission denied",
	"permission_denied",
	"unauthenticated",
}

// Classify はエラーを分類します。センチネル、genai.APIError のコード、文言の順に判定するのだ。
func Classify(err error) domain.ErrorKind {
	if err == nil {
		return domain.KindNone
	}
	if kind := domain.KindOf(err); kind != domain.KindTransport {
		return kind
	}
	if apiErr, ok := asAPIError(err); ok {
		switch {
		case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
			return domain.KindAuthorization
		case apiErr.Status == "UNAUTHENTICATED", apiErr.Status == "PERMISSION_DENIED":
			return domain.KindAuthorization
		}
	}
	msg := strings.ToLower(err.Error())
	for _, s := range authorizationSubstrings {
		if strings.Contains(msg, s) {
			return domain.KindAuthorization
		}
	}
	return domain.KindTransport
}

// wrapFailure は下位のエラーを分類済みのセンチネルでラップします。元のエラーも辿れます。
func wrapFailure(err error) error {
	if err == nil {
		return nil
	}
	switch Classify(err) {
	case domain.KindEmptyResult:
		return err
	case domain.KindAuthorization:
		return fmt.Errorf("%w: %w", domain.ErrAuthorization, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, err)
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

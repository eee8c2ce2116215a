package generator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"nil", nil, domain.KindNone},
		{"センチネル優先", fmt.Errorf("wrap: %w", domain.ErrEmptyResult), domain.KindEmptyResult},
		{"APIError 401", genai.APIError{Code: 401, Message: "unauthorized"}, domain.KindAuthorization},
		{"APIError 403 (ポインタ)", &genai.APIError{Code: 403, Message: "forbidden"}, domain.KindAuthorization},
		{"APIError ステータス", genai.APIError{Code: 400, Status: "PERMISSION_DENIED"}, domain.KindAuthorization},
		{"文言: API key not valid", errors.New("googleapi: API key not valid. Please pass a valid API key."), domain.KindAuthorization},
		{"文言: Requested entity was not found", errors.New("Requested entity was not found."), domain.KindAuthorization},
		{"APIError 500", genai.APIError{Code: 500, Message: "internal"}, domain.KindTransport},
		{"その他", errors.New("dial tcp: i/o timeout"), domain.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestWrapFailure(t *testing.T) {
	assert.Nil(t, wrapFailure(nil))

	empty := fmt.Errorf("x: %w", domain.ErrEmptyResult)
	assert.Same(t, empty, wrapFailure(empty))

	auth := wrapFailure(errors.New("API_KEY_INVALID"))
	assert.ErrorIs(t, auth, domain.ErrAuthorization)
	assert.NotErrorIs(t, auth, domain.ErrTransport)

	transport := wrapFailure(errors.New("EOF"))
	assert.ErrorIs(t, transport, domain.ErrTransport)
}

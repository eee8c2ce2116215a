package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagineController_Trigger(t *testing.T) {
	view := &recordingView{}
	c, err := NewImagineController(&mockImagine{}, staticKey("k"), view, nil)
	require.NoError(t, err)
	assert.False(t, view.trigger())

	require.NoError(t, c.SetPrompt("a red fox"))
	assert.True(t, view.trigger())
	assert.Equal(t, "a red fox", view.prompt)

	require.NoError(t, c.SetPrompt("   "))
	assert.False(t, view.trigger(), "空白だけのプロンプトでは押せない")
}

func TestImagineController_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("設定とキーを渡して生成するのだ", func(t *testing.T) {
		var gotOpts domain.ImagineOptions
		var gotPrompt, gotKey string
		gen := &mockImagine{imagineFunc: func(ctx context.Context, prompt string, opts domain.ImagineOptions, apiKey string) (*domain.ImageResponse, error) {
			gotPrompt, gotOpts, gotKey = prompt, opts, apiKey
			return &domain.ImageResponse{Data: []byte("fox"), MimeType: "image/jpeg"}, nil
		}}
		view := &recordingView{}
		c, err := NewImagineController(gen, staticKey("secret"), view, nil)
		require.NoError(t, err)
		require.NoError(t, c.SetPrompt("a red fox"))
		require.NoError(t, c.SetOptions(domain.ImagineOptions{AspectRatio: "16:9"}))

		out, err := c.Generate(ctx)

		require.NoError(t, err)
		assert.Equal(t, Success, out.State)
		assert.Equal(t, "a red fox", gotPrompt)
		assert.Equal(t, "16:9", gotOpts.AspectRatio)
		assert.Equal(t, "secret", gotKey)
		require.NotNil(t, view.image)
		assert.Equal(t, StatusSuccess, view.lastStatus().Message)
	})

	t.Run("キーが無ければ生成を呼ばずキー選択を開く", func(t *testing.T) {
		gen := &mockImagine{}
		selector := &mockSelector{}
		view := &recordingView{}
		c, err := NewImagineController(gen, staticKey(""), view, selector)
		require.NoError(t, err)
		require.NoError(t, c.SetPrompt("a red fox"))

		out, err := c.Generate(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, gen.calls)
		assert.Equal(t, 1, selector.calls)
		assert.Equal(t, Idle, out.State)
		assert.Equal(t, StatusMissingCredential, out.Message)
		assert.Equal(t, statusEntry{Message: StatusMissingCredential, IsError: true}, view.lastStatus())
	})

	t.Run("選択機能が無ければ案内文を追記する", func(t *testing.T) {
		gen := &mockImagine{}
		view := &recordingView{}
		c, err := NewImagineController(gen, staticKey(""), view, nil)
		require.NoError(t, err)
		require.NoError(t, c.SetPrompt("a red fox"))

		out, err := c.Generate(ctx)

		require.NoError(t, err)
		want := StatusMissingCredential + " " + StatusKeySelectionUnavailable
		assert.Equal(t, want, out.Message)
		assert.Equal(t, statusEntry{Message: want, IsError: true}, view.lastStatus())
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("認可エラーでもキー選択を開く", func(t *testing.T) {
		gen := &mockImagine{imagineFunc: func(ctx context.Context, prompt string, opts domain.ImagineOptions, apiKey string) (*domain.ImageResponse, error) {
			return nil, errors.New("API key not valid. Please pass a valid API key.")
		}}
		selector := &mockSelector{}
		view := &recordingView{}
		c, err := NewImagineController(gen, staticKey("bad"), view, selector)
		require.NoError(t, err)
		require.NoError(t, c.SetPrompt("a red fox"))

		out, err := c.Generate(ctx)

		require.NoError(t, err)
		assert.Equal(t, Failed, out.State)
		assert.Equal(t, domain.KindAuthorization, out.Kind)
		assert.Equal(t, 1, selector.calls)
		assert.Equal(t, StatusAuthorization+" "+StatusSelectValidKey, view.lastStatus().Message)
		assert.Equal(t, out.Message, view.lastStatus().Message)
	})

	t.Run("キー選択のキャンセルは結果に影響しない", func(t *testing.T) {
		selector := &mockSelector{err: context.Canceled}
		c, err := NewImagineController(&mockImagine{}, staticKey(""), &recordingView{}, selector)
		require.NoError(t, err)
		require.NoError(t, c.SetPrompt("fox"))

		out, err := c.Generate(ctx)

		require.NoError(t, err)
		assert.Equal(t, StatusMissingCredential, out.Message)
	})

	t.Run("プロンプトが空なら入力を促す", func(t *testing.T) {
		gen := &mockImagine{}
		view := &recordingView{}
		c, err := NewImagineController(gen, staticKey("k"), view, nil)
		require.NoError(t, err)

		out, err := c.Generate(ctx)

		require.NoError(t, err)
		assert.Equal(t, domain.KindMissingRequiredInput, out.Kind)
		assert.Equal(t, statusEntry{Message: StatusMissingPrompt, IsError: true}, view.lastStatus())
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("空の結果は Failed", func(t *testing.T) {
		gen := &mockImagine{imagineFunc: func(ctx context.Context, prompt string, opts domain.ImagineOptions, apiKey string) (*domain.ImageResponse, error) {
			return nil, domain.ErrEmptyResult
		}}
		selector := &mockSelector{}
		view := &recordingView{}
		c, err := NewImagineController(gen, staticKey("k"), view, selector)
		require.NoError(t, err)
		require.NoError(t, c.SetPrompt("fox"))

		out, err := c.Generate(ctx)

		require.NoError(t, err)
		assert.Equal(t, Failed, out.State)
		assert.Nil(t, view.image)
		assert.Equal(t, 0, selector.calls)
	})
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, "", MessageFor(domain.KindNone, nil))
	assert.Equal(t, StatusUnknownError, MessageFor(domain.KindTransport, nil))
	assert.Equal(t, "Error: boom", MessageFor(domain.KindTransport, errors.New("boom")))
	assert.Equal(t, StatusEmptyResult, MessageFor(domain.KindEmptyResult, domain.ErrEmptyResult))
}

func TestMessageFor_StripsTransportPrefix(t *testing.T) {
	err := fmt.Errorf("%w: %w", domain.ErrTransport, errors.New("deadline exceeded"))
	assert.Equal(t, "Error: deadline exceeded", MessageFor(domain.KindTransport, err))
}

func TestImagineController_SelectorReportsUnavailable(t *testing.T) {
	selector := &mockSelector{err: fmt.Errorf("no socket: %w", ErrKeySelectionUnavailable)}
	view := &recordingView{}
	c, err := NewImagineController(&mockImagine{}, staticKey(""), view, selector)
	require.NoError(t, err)
	require.NoError(t, c.SetPrompt("fox"))

	out, err := c.Generate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, selector.calls)
	assert.Equal(t, StatusMissingCredential+" "+StatusKeySelectionUnavailable, out.Message)
	assert.Equal(t, out.Message, view.lastStatus().Message)
}

func TestImagineController_RejectKeepsConcurrentBusy(t *testing.T) {
	// 1回目はキー未設定、2回目以降は設定済み
	var credCalls int32
	creds := CredentialFunc(func() string {
		if atomic.AddInt32(&credCalls, 1) == 1 {
			return ""
		}
		return "k"
	})

	selector := &blockingSelector{entered: make(chan struct{}), release: make(chan struct{})}
	genEntered, genRelease := make(chan struct{}), make(chan struct{})
	gen := &mockImagine{imagineFunc: func(ctx context.Context, prompt string, opts domain.ImagineOptions, apiKey string) (*domain.ImageResponse, error) {
		close(genEntered)
		<-genRelease
		return &domain.ImageResponse{Data: []byte("fox"), MimeType: "image/jpeg"}, nil
	}}
	view := &recordingView{}
	c, err := NewImagineController(gen, creds, view, selector)
	require.NoError(t, err)
	require.NoError(t, c.SetPrompt("a red fox"))

	// A: キーが無いのでキー選択で待つ
	doneA := make(chan Outcome, 1)
	go func() {
		out, _ := c.Generate(context.Background())
		doneA <- out
	}()
	<-selector.entered

	// B: キーがあるので生成中のまま止まる
	doneB := make(chan Outcome, 1)
	go func() {
		out, _ := c.Generate(context.Background())
		doneB <- out
	}()
	<-genEntered
	require.Equal(t, Busy, c.State())

	// A のキー選択が終わっても B の Busy は保たれるのだ
	close(selector.release)
	outA := <-doneA
	assert.Equal(t, domain.KindMissingCredential, outA.Kind)
	assert.Equal(t, Busy, c.State())
	assert.False(t, view.trigger())

	_, err = c.Generate(context.Background())
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(genRelease)
	outB := <-doneB
	assert.Equal(t, Success, outB.State)
	assert.Equal(t, Success, c.State())
	assert.True(t, view.trigger())
}

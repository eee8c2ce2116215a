package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"github.com/shouni/gemini-fusion-kit/pkg/generator"
)

// ImagineController はテキストからの画像生成フローを管理します。
// キーが無い場合や認可エラーの場合はキー選択ダイアログに誘導するのだ。
type ImagineController struct {
	*machine
	gen   generator.ImagineGenerator
	creds CredentialSource

	inputMu sync.RWMutex
	prompt  string
	options domain.ImagineOptions
}

// NewImagineController は ImagineController を初期化します。キー選択は常に提案されます。
func NewImagineController(gen generator.ImagineGenerator, creds CredentialSource, view View, selector KeySelector) (*ImagineController, error) {
	if gen == nil {
		return nil, fmt.Errorf("gen (ImagineGenerator) is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("creds (CredentialSource) is required")
	}
	if view == nil {
		return nil, fmt.Errorf("view is required")
	}

	c := &ImagineController{gen: gen, creds: creds}
	c.machine = newMachine(view, Options{OfferKeySelection: true, KeySelector: selector}, c.hasPrompt)
	c.refreshTrigger()
	return c, nil
}

// Prompt は現在のプロンプトです。
func (c *ImagineController) Prompt() string {
	c.inputMu.RLock()
	defer c.inputMu.RUnlock()
	return c.prompt
}

// Options は現在の生成設定です。
func (c *ImagineController) Options() domain.ImagineOptions {
	c.inputMu.RLock()
	defer c.inputMu.RUnlock()
	return c.options
}

// SetPrompt はプロンプトを更新します。
func (c *ImagineController) SetPrompt(prompt string) error {
	if err := c.guard(); err != nil {
		return err
	}
	c.inputMu.Lock()
	c.prompt = prompt
	c.inputMu.Unlock()

	c.view.SetPrompt(prompt)
	c.refreshTrigger()
	return nil
}

// SetOptions は生成設定を更新します。
func (c *ImagineController) SetOptions(opts domain.ImagineOptions) error {
	if err := c.guard(); err != nil {
		return err
	}
	c.inputMu.Lock()
	c.options = opts
	c.inputMu.Unlock()
	return nil
}

// Generate は生成トリガーです。キー未設定ならネットワークを呼ばずにキー選択へ誘導して Idle に戻るのだ。
func (c *ImagineController) Generate(ctx context.Context) (Outcome, error) {
	if err := c.guard(); err != nil {
		return Outcome{State: Busy}, err
	}

	apiKey := c.creds.Credential()
	if apiKey == "" {
		return c.reject(ctx, domain.ErrMissingCredential, ""), nil
	}

	prompt, opts := c.Prompt(), c.Options()
	if strings.TrimSpace(prompt) == "" {
		return c.reject(ctx, fmt.Errorf("%w: prompt", domain.ErrMissingRequiredInput), StatusMissingPrompt), nil
	}

	if err := c.begin(); err != nil {
		return Outcome{State: Busy}, err
	}

	img, err := c.gen.Imagine(ctx, prompt, opts, apiKey)
	return c.finish(ctx, img, err), nil
}

func (c *ImagineController) hasPrompt() bool {
	return strings.TrimSpace(c.Prompt()) != ""
}

package lifecycle

import (
	"context"
	"fmt"
	"io"

	"github.com/shouni/gemini-fusion-kit/pkg/collector"
	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"github.com/shouni/gemini-fusion-kit/pkg/generator"
	"github.com/shouni/gemini-fusion-kit/pkg/payload"
)

// FusionController はスタイル融合フローの入力と生成ライフサイクルを管理します。
type FusionController struct {
	*machine
	inputs *collector.Collector
	gen    generator.FusionGenerator
	creds  CredentialSource
}

// NewFusionController は依存関係を注入して FusionController を初期化するのだ。
// 初期状態の合成プロンプトとトリガー状態をすぐに View へ反映します。
func NewFusionController(inputs *collector.Collector, gen generator.FusionGenerator, creds CredentialSource, view View, opts Options) (*FusionController, error) {
	if inputs == nil {
		return nil, fmt.Errorf("inputs (collector) is required")
	}
	if gen == nil {
		return nil, fmt.Errorf("gen (FusionGenerator) is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("creds (CredentialSource) is required")
	}
	if view == nil {
		return nil, fmt.Errorf("view is required")
	}

	c := &FusionController{inputs: inputs, gen: gen, creds: creds}
	c.machine = newMachine(view, opts, inputs.HasRequired)
	c.refresh()
	return c, nil
}

// Inputs は現在の入力状態のスナップショットを返します。
func (c *FusionController) Inputs() collector.State {
	return c.inputs.Snapshot()
}

// SetImage はロールの画像を読み込みます。Busy 中は domain.ErrBusy です。
func (c *FusionController) SetImage(ctx context.Context, role domain.Role, r io.Reader, name, mimeType string) (domain.ImageSlot, error) {
	if err := c.guard(); err != nil {
		return domain.ImageSlot{}, err
	}
	slot, err := c.inputs.SetImage(ctx, role, r, name, mimeType)
	if err != nil {
		return domain.ImageSlot{}, err
	}
	c.refresh()
	return slot, nil
}

// ClearImage はロールの画像を外します。
func (c *FusionController) ClearImage(role domain.Role) error {
	if err := c.guard(); err != nil {
		return err
	}
	c.inputs.ClearImage(role)
	c.refresh()
	return nil
}

// SetDescription はロールの記述を更新します。
func (c *FusionController) SetDescription(role domain.Role, text string) error {
	if err := c.guard(); err != nil {
		return err
	}
	c.inputs.SetDescription(role, text)
	c.refresh()
	return nil
}

// SetFlag は生成フラグを更新します。知らないフラグ名なら false を返すのだ。
func (c *FusionController) SetFlag(name string, value bool) (bool, error) {
	if err := c.guard(); err != nil {
		return false, err
	}
	ok := c.inputs.SetFlag(name, value)
	c.refresh()
	return ok, nil
}

// Generate は生成トリガーです。Busy 中なら状態に触れず domain.ErrBusy を返します。
// それ以外の失敗はすべて Outcome に分類済みで入り、呼び出し元へは伝播しません。
func (c *FusionController) Generate(ctx context.Context) (Outcome, error) {
	if err := c.guard(); err != nil {
		return Outcome{State: Busy}, err
	}

	apiKey := c.creds.Credential()
	if apiKey == "" {
		return c.reject(ctx, domain.ErrMissingCredential, ""), nil
	}

	snap := c.inputs.Snapshot()
	if !snap.HasRequired() {
		return c.reject(ctx, domain.ErrMissingRequiredInput, StatusMissingFusionInput), nil
	}

	if err := c.begin(); err != nil {
		return Outcome{State: Busy}, err
	}

	p, err := payload.Build(snap.Prompt, snap.Slots)
	if err != nil {
		return c.finish(ctx, nil, err), nil
	}

	img, err := c.gen.Fuse(ctx, p, apiKey)
	return c.finish(ctx, img, err), nil
}

// refresh は派生値（合成プロンプト）とトリガー状態を View に反映します。
func (c *FusionController) refresh() {
	c.view.SetPrompt(c.inputs.Prompt())
	c.refreshTrigger()
}

package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"github.com/shouni/gemini-fusion-kit/pkg/imgutil"
	"github.com/shouni/gemini-fusion-kit/pkg/prompt"
)

// DefaultMaxImageBytes は1枚あたりの読み込み上限です。
const DefaultMaxImageBytes int64 = 20 << 20

// State は入力状態のスナップショットです。
type State struct {
	Slots        map[domain.Role]domain.ImageSlot
	Descriptions map[domain.Role]string
	Flags        domain.Flags
	Prompt       string
}

// HasRequired は必須ロール (style, base) が揃っているかを返すのだ。
func (s State) HasRequired() bool {
	for _, role := range domain.Roles() {
		if role.Required() && !s.Slots[role].IsPopulated() {
			return false
		}
	}
	return true
}

// Collector は画像スロット・記述・フラグを保持し、変更のたびに合成プロンプトを再計算します。
type Collector struct {
	mu           sync.RWMutex
	slots        map[domain.Role]domain.ImageSlot
	descriptions map[domain.Role]string
	flags        domain.Flags
	prompt       string
	maxBytes     int64
}

// New は空の Collector を作ります。maxBytes が0以下ならデフォルト上限を使うのだ。
func New(maxBytes int64) *Collector {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	c := &Collector{
		slots:        make(map[domain.Role]domain.ImageSlot),
		descriptions: make(map[domain.Role]string),
		maxBytes:     maxBytes,
	}
	c.recompute()
	return c
}

// SetImage は r を読み込んでロールのスロットを丸ごと置き換えます。
// 読み込みや画像判定に失敗した場合は domain.ErrDecode を返し、既存のスロットは変更しません。
// 同じロールへの同時呼び出しは後に完了した方が勝ちます。
func (c *Collector) SetImage(ctx context.Context, role domain.Role, r io.Reader, name, mimeType string) (domain.ImageSlot, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return domain.ImageSlot{}, fmt.Errorf("%w: %s の読み込みに失敗しました: %w", domain.ErrDecode, role, err)
	}
	if int64(len(data)) > c.maxBytes {
		return domain.ImageSlot{}, fmt.Errorf("%w: %s が上限 %d バイトを超えています", domain.ErrDecode, role, c.maxBytes)
	}
	if _, err := imgutil.Inspect(data); err != nil {
		return domain.ImageSlot{}, fmt.Errorf("%w: %s: %w", domain.ErrDecode, role, err)
	}

	slot := domain.NewImageSlot(name, imgutil.ResolveMIMEType(mimeType, data), data)

	c.mu.Lock()
	c.slots[role] = slot
	c.recompute()
	c.mu.Unlock()

	slog.DebugContext(ctx, "画像スロットを更新しました", "role", role, "mime_type", slot.MIMEType, "bytes", len(data))
	return slot, nil
}

// ClearImage はロールのスロットを無条件に空へ戻します。
func (c *Collector) ClearImage(role domain.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, role)
	c.recompute()
}

// SetDescription はロールの記述を更新します。検証はしないのだ。
func (c *Collector) SetDescription(role domain.Role, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptions[role] = text
	c.recompute()
}

// SetFlag は名前でフラグを更新します。知らないフラグなら false を返し、状態は変わりません。
func (c *Collector) SetFlag(name string, value bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.flags.Set(name, value) {
		return false
	}
	c.recompute()
	return true
}

// Prompt は現在の合成プロンプトを返します。
func (c *Collector) Prompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prompt
}

// Snapshot は現在の状態のコピーを返します。
func (c *Collector) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	slots := make(map[domain.Role]domain.ImageSlot, len(c.slots))
	for k, v := range c.slots {
		slots[k] = v
	}
	descriptions := make(map[domain.Role]string, len(c.descriptions))
	for k, v := range c.descriptions {
		descriptions[k] = v
	}
	return State{
		Slots:        slots,
		Descriptions: descriptions,
		Flags:        c.flags,
		Prompt:       c.prompt,
	}
}

// HasRequired は必須画像が揃っているかを返します。
func (c *Collector) HasRequired() bool {
	return c.Snapshot().HasRequired()
}

// recompute は派生値である合成プロンプトを作り直します。呼び出し側でロックを保持すること。
func (c *Collector) recompute() {
	c.prompt = prompt.Compose(prompt.Input{
		Slots:        c.slots,
		Descriptions: c.descriptions,
		Flags:        c.flags,
	})
}

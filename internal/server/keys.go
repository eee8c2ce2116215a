package server

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/gemini-fusion-kit/pkg/lifecycle"
)

// keySelectionTimeout はキー選択ダイアログの回答を待つ上限です。
const keySelectionTimeout = 2 * time.Minute

// keySelector はブラウザのダイアログ経由で API キーを選ばせる lifecycle.KeySelector です。
// 選ばれたキーはセッション内だけで保持し、環境変数のキーより優先するのだ。
type keySelector struct {
	hub     *hub
	timeout time.Duration

	mu      sync.Mutex
	apiKey  string
	pending map[chan error]struct{}
}

func newKeySelector(h *hub, timeout time.Duration) *keySelector {
	if timeout <= 0 {
		timeout = keySelectionTimeout
	}
	return &keySelector{hub: h, timeout: timeout, pending: make(map[chan error]struct{})}
}

// SelectKey はダイアログを開き、キーが送られてくるかキャンセルされるまで待ちます。
// 接続中のブラウザが無ければ lifecycle.ErrKeySelectionUnavailable、
// ダイアログがキャンセルされたら context.Canceled です。
func (k *keySelector) SelectKey(ctx context.Context) error {
	if k.hub.count() == 0 {
		return lifecycle.ErrKeySelectionUnavailable
	}

	answer := make(chan error, 1)
	k.mu.Lock()
	k.pending[answer] = struct{}{}
	k.mu.Unlock()

	k.hub.broadcast(Event{Type: EventSelectKey})

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	select {
	case err := <-answer:
		return err
	case <-ctx.Done():
		k.mu.Lock()
		delete(k.pending, answer)
		k.mu.Unlock()
		return ctx.Err()
	}
}

// Submit はダイアログの回答を受け取り、待っている呼び出しをすべて解放します。
func (k *keySelector) Submit(apiKey string) {
	k.mu.Lock()
	k.apiKey = apiKey
	k.release(nil)
	k.mu.Unlock()

	k.hub.broadcast(Event{Type: EventKeySelected})
}

// Cancel はダイアログが閉じられたことを伝えます。キーは変わりません。
// 待っている呼び出しがあれば true を返すのだ。
func (k *keySelector) Cancel() bool {
	k.mu.Lock()
	waiting := len(k.pending) > 0
	k.release(context.Canceled)
	k.mu.Unlock()

	k.hub.broadcast(Event{Type: EventKeyCancelled})
	return waiting
}

// release は待機中の呼び出しに結果を渡します。呼び出し側でロックを保持すること。
func (k *keySelector) release(err error) {
	for answer := range k.pending {
		answer <- err
	}
	k.pending = make(map[chan error]struct{})
}

// Key は選ばれたキーです。未選択なら空文字です。
func (k *keySelector) Key() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.apiKey
}

func (k *keySelector) Available() bool {
	return k.hub.count() > 0
}

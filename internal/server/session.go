package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/shouni/gemini-fusion-kit/pkg/collector"
	"github.com/shouni/gemini-fusion-kit/pkg/lifecycle"
)

// Session はブラウザのタブひとつ分の入力と生成状態なのだ。メモリ上にだけ存在します。
type Session struct {
	ID        string
	CreatedAt time.Time

	Fusion  *lifecycle.FusionController
	Imagine *lifecycle.ImagineController

	fusionView  *webView
	imagineView *webView
	hub         *hub
	keys        *keySelector
}

func newSession(id string, deps Dependencies, maxUploadBytes int64) (*Session, error) {
	h := newHub()
	keys := newKeySelector(h, deps.KeySelectionTimeout)

	creds := lifecycle.CredentialFunc(func() string {
		if k := keys.Key(); k != "" {
			return k
		}
		return deps.Credentials.Credential()
	})

	fusionView := newWebView(VariantFusion, h.broadcast)
	fusion, err := lifecycle.NewFusionController(collector.New(maxUploadBytes), deps.Fusion, creds, fusionView, lifecycle.Options{})
	if err != nil {
		return nil, fmt.Errorf("融合コントローラーの初期化に失敗しました: %w", err)
	}

	imagineView := newWebView(VariantImagine, h.broadcast)
	imagine, err := lifecycle.NewImagineController(deps.Imagine, creds, imagineView, keys)
	if err != nil {
		return nil, fmt.Errorf("画像生成コントローラーの初期化に失敗しました: %w", err)
	}

	return &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		Fusion:      fusion,
		Imagine:     imagine,
		fusionView:  fusionView,
		imagineView: imagineView,
		hub:         h,
		keys:        keys,
	}, nil
}

// views は接続直後に送る現在の画面状態です。
func (s *Session) views() []Event {
	fv, iv := s.fusionView.Snapshot(), s.imagineView.Snapshot()
	return []Event{
		{Type: EventView, Variant: VariantFusion, View: &fv},
		{Type: EventView, Variant: VariantImagine, View: &iv},
	}
}

// SessionStore は TTL 付きでセッションを保持します。アクセスのたびに期限が延びるのだ。
type SessionStore struct {
	items   *cache.Cache
	factory func(id string) (*Session, error)
}

// NewSessionStore は SessionStore を作ります。期限切れのセッションは WebSocket も切断されます。
func NewSessionStore(ttl time.Duration, factory func(id string) (*Session, error)) *SessionStore {
	items := cache.New(ttl, ttl)
	items.OnEvicted(func(id string, v interface{}) {
		if sess, ok := v.(*Session); ok {
			sess.hub.closeAll()
		}
		slog.Info("セッションを破棄しました", "session", id)
	})
	return &SessionStore{items: items, factory: factory}
}

// Create は新しいセッションを作って登録します。
func (s *SessionStore) Create() (*Session, error) {
	id := uuid.NewString()
	sess, err := s.factory(id)
	if err != nil {
		return nil, err
	}
	s.items.SetDefault(id, sess)
	slog.Info("セッションを作成しました", "session", id)
	return sess, nil
}

// Get はセッションを取得し、期限を延長します。
func (s *SessionStore) Get(id string) (*Session, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	if !ok {
		return nil, false
	}
	s.items.SetDefault(id, sess)
	return sess, true
}

// Delete はセッションを即座に破棄します。
func (s *SessionStore) Delete(id string) {
	s.items.Delete(id)
}

// Count は保持しているセッション数です。
func (s *SessionStore) Count() int {
	return s.items.ItemCount()
}

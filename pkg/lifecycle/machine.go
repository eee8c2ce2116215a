package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"github.com/shouni/gemini-fusion-kit/pkg/generator"
)

// State はリクエストのライフサイクル状態です。
type State int

const (
	Idle State = iota
	Busy
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	case Success:
		return "success"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// View はコントローラーが操作する UI 面です。
type View interface {
	SetControlsDisabled(disabled bool)
	SetTriggerEnabled(enabled bool)
	SetStatus(message string, isError bool)
	SetPrompt(prompt string)
	ShowImage(img domain.ImageResponse)
	HideImage()
}

// ErrKeySelectionUnavailable は KeySelector がその時点で選択ダイアログを出せないことを表します。
// nil の KeySelector と同じく案内文の表示に切り替わるのだ。
var ErrKeySelectionUnavailable = errors.New("key selection is unavailable")

// KeySelector はホストが提供する対話的な API キー選択ダイアログです。
// 選択が終わるまでブロックしてよいのだ。
type KeySelector interface {
	SelectKey(ctx context.Context) error
}

// CredentialSource は呼び出し時点の API キーを返します。空文字は未設定を意味します。
type CredentialSource interface {
	Credential() string
}

// CredentialFunc は関数を CredentialSource として使うためのアダプターです。
type CredentialFunc func() string

func (f CredentialFunc) Credential() string { return f() }

// Options はコントローラー共通の任意設定です。
type Options struct {
	// OfferKeySelection が true の場合、キー未設定や認可エラーでキー選択に誘導します。
	OfferKeySelection bool
	// KeySelector が nil ならホストに選択機能が無いものとして案内文を表示するのだ。
	KeySelector KeySelector
}

// Outcome は1回の生成トリガーの結果です。
type Outcome struct {
	State   State
	Image   *domain.ImageResponse
	Kind    domain.ErrorKind
	Message string
	Err     error
}

// machine は Idle → Busy → Success/Failed の遷移と、それに伴う UI 操作を担います。
// Busy の間は他の生成とミューテーションを ErrBusy で拒否します。
type machine struct {
	mu    sync.Mutex
	state State
	view  View
	opts  Options
	ready func() bool
}

func newMachine(view View, opts Options, ready func() bool) *machine {
	return &machine{state: Idle, view: view, opts: opts, ready: ready}
}

func (m *machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// guard は Busy 中なら ErrBusy を返します。
func (m *machine) guard() error {
	if m.State() == Busy {
		return domain.ErrBusy
	}
	return nil
}

// refreshTrigger はトリガーの有効状態を「必須入力あり かつ Busy でない」に合わせます。
// 判定と反映の間に begin が割り込まないようロックを保持したまま View を更新するのだ。
func (m *machine) refreshTrigger() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.SetTriggerEnabled(m.state != Busy && m.ready())
}

// begin は Busy へ遷移し、入力を無効化して前回の結果を隠すのだ。
func (m *machine) begin() error {
	m.mu.Lock()
	if m.state == Busy {
		m.mu.Unlock()
		return domain.ErrBusy
	}
	m.state = Busy
	m.view.SetTriggerEnabled(false)
	m.mu.Unlock()

	m.view.SetControlsDisabled(true)
	m.view.HideImage()
	m.view.SetStatus(StatusGenerating, false)
	return nil
}

// finish は結果に応じて Success か Failed へ遷移し、入力を再度有効にします。
func (m *machine) finish(ctx context.Context, img *domain.ImageResponse, err error) Outcome {
	out := Outcome{Image: img, Err: err}
	if err == nil && (img == nil || len(img.Data) == 0) {
		err = domain.ErrEmptyResult
		out.Err = err
		out.Image = nil
	}

	if err == nil {
		out.State = Success
		out.Message = StatusSuccess
		m.view.ShowImage(*img)
		m.view.SetStatus(out.Message, false)
	} else {
		out.State = Failed
		out.Kind = generator.Classify(err)
		out.Message = MessageFor(out.Kind, err)
		if out.Kind == domain.KindAuthorization && m.opts.OfferKeySelection {
			out.Message += " " + StatusSelectValidKey
		}
		slog.WarnContext(ctx, "画像生成に失敗しました", "kind", out.Kind.String(), "error", err)
		m.view.SetStatus(out.Message, true)
	}

	m.mu.Lock()
	m.state = out.State
	m.mu.Unlock()

	m.view.SetControlsDisabled(false)
	m.refreshTrigger()

	if out.Kind == domain.KindAuthorization {
		out.Message = m.offerKeySelection(ctx, out.Message)
	}
	return out
}

// reject は Busy に入らずに失敗を表示します。状態には触れないのだ。
// キー選択で待っている間に別の生成が始まっていても、その Busy を上書きしません。
// message が空なら分類から文言を決めます。
func (m *machine) reject(ctx context.Context, err error, message string) Outcome {
	kind := domain.KindOf(err)
	if message == "" {
		message = MessageFor(kind, err)
	}
	out := Outcome{State: Idle, Kind: kind, Message: message, Err: err}
	m.view.SetStatus(out.Message, true)

	if kind == domain.KindMissingCredential {
		out.Message = m.offerKeySelection(ctx, out.Message)
	}

	m.refreshTrigger()
	return out
}

// offerKeySelection はキー選択ダイアログを開くか、無ければ案内文を追記します。
// 最終的に表示しているステータス文言を返すのだ。
func (m *machine) offerKeySelection(ctx context.Context, status string) string {
	if !m.opts.OfferKeySelection {
		return status
	}
	if m.opts.KeySelector == nil {
		return m.keySelectionUnavailable(status)
	}
	if err := m.opts.KeySelector.SelectKey(ctx); err != nil {
		if errors.Is(err, ErrKeySelectionUnavailable) {
			return m.keySelectionUnavailable(status)
		}
		if errors.Is(err, context.Canceled) {
			slog.InfoContext(ctx, "キー選択がキャンセルされました")
			return status
		}
		slog.WarnContext(ctx, "キー選択ダイアログの呼び出しに失敗しました", "error", err)
	}
	return status
}

func (m *machine) keySelectionUnavailable(status string) string {
	status = status + " " + StatusKeySelectionUnavailable
	m.view.SetStatus(status, true)
	return status
}

package server

import (
	"sync"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
)

// 画面の種類です。
const (
	VariantFusion  = "fusion"
	VariantImagine = "imagine"
)

// ViewState はブラウザ側の画面状態です。
type ViewState struct {
	ControlsDisabled bool   `json:"controlsDisabled"`
	TriggerEnabled   bool   `json:"triggerEnabled"`
	Status           string `json:"status"`
	StatusIsError    bool   `json:"statusIsError"`
	Prompt           string `json:"prompt"`
	Image            string `json:"image,omitempty"`
}

// webView は lifecycle.View の実装です。状態を保持し、変化のたびにイベントを流すのだ。
type webView struct {
	mu      sync.Mutex
	variant string
	state   ViewState
	publish func(Event)
}

func newWebView(variant string, publish func(Event)) *webView {
	return &webView{variant: variant, publish: publish}
}

func (v *webView) Snapshot() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *webView) update(fn func(*ViewState)) {
	v.mu.Lock()
	fn(&v.state)
	snap := v.state
	v.mu.Unlock()

	if v.publish != nil {
		v.publish(Event{Type: EventView, Variant: v.variant, View: &snap})
	}
}

func (v *webView) SetControlsDisabled(disabled bool) {
	v.update(func(s *ViewState) { s.ControlsDisabled = disabled })
}

func (v *webView) SetTriggerEnabled(enabled bool) {
	v.update(func(s *ViewState) { s.TriggerEnabled = enabled })
}

func (v *webView) SetStatus(message string, isError bool) {
	v.update(func(s *ViewState) {
		s.Status = message
		s.StatusIsError = isError
	})
}

func (v *webView) SetPrompt(prompt string) {
	v.update(func(s *ViewState) { s.Prompt = prompt })
}

func (v *webView) ShowImage(img domain.ImageResponse) {
	v.update(func(s *ViewState) { s.Image = img.DataURL() })
}

func (v *webView) HideImage() {
	v.update(func(s *ViewState) { s.Image = "" })
}

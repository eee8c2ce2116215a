package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
	"github.com/shouni/gemini-fusion-kit/pkg/lifecycle"
)

// multipartOverhead はアップロード上限に加えて許容するフォームのヘッダー分です。
const multipartOverhead = 1 << 20

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *Session)

type slotView struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Preview  string `json:"preview"`
}

type fusionSnapshot struct {
	View         ViewState                `json:"view"`
	Slots        map[domain.Role]slotView `json:"slots"`
	Descriptions map[domain.Role]string   `json:"descriptions"`
	PrintQuality bool                     `json:"printQuality"`
	State        string                   `json:"state"`
}

type imagineSnapshot struct {
	View    ViewState             `json:"view"`
	Prompt  string                `json:"prompt"`
	Options domain.ImagineOptions `json:"options"`
	State   string                `json:"state"`
}

type sessionSnapshot struct {
	ID                    string          `json:"id"`
	Fusion                fusionSnapshot  `json:"fusion"`
	Imagine               imagineSnapshot `json:"imagine"`
	KeySelected           bool            `json:"keySelected"`
	KeySelectionAvailable bool            `json:"keySelectionAvailable"`
}

type outcomeView struct {
	State   string `json:"state"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type generateResponse struct {
	Outcome outcomeView     `json:"outcome"`
	Session sessionSnapshot `json:"session"`
}

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(mux.Vars(r)["id"])
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		slog.ErrorContext(r.Context(), "セッションの作成に失敗しました", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, snapshotOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sess *Session) {
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetImage(w http.ResponseWriter, r *http.Request, sess *Session) {
	role, ok := roleFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if _, err := sess.Fusion.SetImage(r.Context(), role, file, header.Filename, header.Header.Get("Content-Type")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

func (s *Server) handleClearImage(w http.ResponseWriter, r *http.Request, sess *Session) {
	role, ok := roleFrom(w, r)
	if !ok {
		return
	}
	if err := sess.Fusion.ClearImage(role); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

func (s *Server) handleSetDescription(w http.ResponseWriter, r *http.Request, sess *Session) {
	role, ok := roleFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.Fusion.SetDescription(role, req.Text); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

func (s *Server) handleSetFlag(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Value bool `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	name := mux.Vars(r)["name"]
	known, err := sess.Fusion.SetFlag(name, req.Value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !known {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown flag: %s", name))
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.respondOutcome(w, r, sess, sess.Fusion.Generate)
}

func (s *Server) handleSetImagine(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Prompt string `json:"prompt"`
		domain.ImagineOptions
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.Imagine.SetPrompt(req.Prompt); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := sess.Imagine.SetOptions(req.ImagineOptions); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

func (s *Server) handleImagineGenerate(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.respondOutcome(w, r, sess, sess.Imagine.Generate)
}

func (s *Server) handleSubmitKey(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		writeError(w, http.StatusBadRequest, "apiKey is required")
		return
	}
	sess.keys.Submit(strings.TrimSpace(req.APIKey))
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

func (s *Server) handleCancelKey(w http.ResponseWriter, r *http.Request, sess *Session) {
	waiting := sess.keys.Cancel()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cancelled": waiting,
		"session":   snapshotOf(sess),
	})
}

// respondOutcome は生成を実行し、成否にかかわらず 200 で結果と画面状態を返します。
// 失敗は画面の状態として表すので、API としてのエラーは Busy だけなのだ。
func (s *Server) respondOutcome(w http.ResponseWriter, r *http.Request, sess *Session, generate func(context.Context) (lifecycle.Outcome, error)) {
	out, err := generate(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Outcome: outcomeView{State: out.State.String(), Kind: out.Kind.String(), Message: out.Message},
		Session: snapshotOf(sess),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.URL.Query().Get("session"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket のアップグレードに失敗しました", "error", err)
		return
	}

	c := sess.hub.add(conn)
	for _, ev := range sess.views() {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		select {
		case c.send <- b:
		default:
		}
	}
	slog.Info("WebSocket が接続されました", "session", sess.ID, "clients", sess.hub.count())

	go c.writePump()
	go s.readPump(sess, c)
}

// readPump は切断を検知するまで読み続けます。ping を受け取るとセッションの期限を延ばすのだ。
func (s *Server) readPump(sess *Session, c *client) {
	defer func() {
		sess.hub.remove(c)
		slog.Info("WebSocket が切断されました", "session", sess.ID)
	}()

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket の読み込みでエラーが発生しました", "error", err)
			}
			return
		}
		if msg.Type == "ping" {
			s.sessions.Get(sess.ID)
		}
	}
}

func snapshotOf(sess *Session) sessionSnapshot {
	in := sess.Fusion.Inputs()
	slots := make(map[domain.Role]slotView, len(in.Slots))
	for role, slot := range in.Slots {
		if !slot.IsPopulated() {
			continue
		}
		slots[role] = slotView{Name: slot.Name, MIMEType: slot.MIMEType, Preview: slot.DataURL()}
	}

	return sessionSnapshot{
		ID: sess.ID,
		Fusion: fusionSnapshot{
			View:         sess.fusionView.Snapshot(),
			Slots:        slots,
			Descriptions: in.Descriptions,
			PrintQuality: in.Flags.PrintQuality,
			State:        sess.Fusion.State().String(),
		},
		Imagine: imagineSnapshot{
			View:    sess.imagineView.Snapshot(),
			Prompt:  sess.Imagine.Prompt(),
			Options: sess.Imagine.Options().WithDefaults(),
			State:   sess.Imagine.State().String(),
		},
		KeySelected:           sess.keys.Key() != "",
		KeySelectionAvailable: sess.keys.Available(),
	}
}

func roleFrom(w http.ResponseWriter, r *http.Request) (domain.Role, bool) {
	role, err := domain.ParseRole(mux.Vars(r)["role"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return role, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeDomainError はドメインのエラーを HTTP ステータスに対応付けます。
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrDecode):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("リクエストの処理に失敗しました", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("レスポンスの書き込みに失敗しました", "error", err)
	}
}

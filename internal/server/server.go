package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/gemini-fusion-kit/internal/config"
	"github.com/shouni/gemini-fusion-kit/pkg/generator"
	"github.com/shouni/gemini-fusion-kit/pkg/lifecycle"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Dependencies はサーバーが使う生成器と資格情報です。
type Dependencies struct {
	Fusion  generator.FusionGenerator
	Imagine generator.ImagineGenerator
	// Credentials が nil なら設定の環境変数から読むのだ。
	Credentials lifecycle.CredentialSource
	// KeySelectionTimeout はキー選択ダイアログの回答待ち上限です。0 ならデフォルト。
	KeySelectionTimeout time.Duration
}

// Server はブラウザ UI と API を提供する HTTP サーバーなのだ。
type Server struct {
	cfg      *config.Config
	sessions *SessionStore
	pages    *template.Template
	upgrader websocket.Upgrader
	router   *mux.Router
}

// New は Server を初期化します。
func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg is required")
	}
	if deps.Fusion == nil || deps.Imagine == nil {
		return nil, fmt.Errorf("fusion and imagine generators are required")
	}
	if deps.Credentials == nil {
		deps.Credentials = cfg
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:   cfg,
		pages: pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.sessions = NewSessionStore(cfg.SessionTTL, func(id string) (*Session, error) {
		return newSession(id, deps, cfg.MaxUploadBytes)
	})
	s.router = s.routes()
	return s, nil
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions はセッションストアです。
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Run は ctx がキャンセルされるまでサーバーを動かし、その後グレースフルに停止するのだ。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("サーバーを起動します", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーが異常終了しました: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("サーバーを停止します")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/", s.handlePage("fusion.html", VariantFusion)).Methods(http.MethodGet)
	r.HandleFunc("/imagine", s.handlePage("imagine.html", VariantImagine)).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)

	api := r.PathPrefix("/api/sessions").Subrouter()
	api.HandleFunc("", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.withSession(s.handleGetSession)).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.withSession(s.handleDeleteSession)).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/images/{role}", s.withSession(s.handleSetImage)).Methods(http.MethodPut)
	api.HandleFunc("/{id}/images/{role}", s.withSession(s.handleClearImage)).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/descriptions/{role}", s.withSession(s.handleSetDescription)).Methods(http.MethodPut)
	api.HandleFunc("/{id}/flags/{name}", s.withSession(s.handleSetFlag)).Methods(http.MethodPut)
	api.HandleFunc("/{id}/generate", s.withSession(s.handleGenerate)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/imagine", s.withSession(s.handleSetImagine)).Methods(http.MethodPut)
	api.HandleFunc("/{id}/imagine/generate", s.withSession(s.handleImagineGenerate)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/key", s.withSession(s.handleSubmitKey)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/key/cancel", s.withSession(s.handleCancelKey)).Methods(http.MethodPost)
	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.DebugContext(r.Context(), "リクエストを処理しました",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

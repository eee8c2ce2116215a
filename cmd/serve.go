package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-fusion-kit/internal/config"
	"github.com/shouni/gemini-fusion-kit/internal/server"
	"github.com/shouni/gemini-fusion-kit/pkg/generator"
)

// serveCmd は Web UI と API のサーバーを起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Web UI サーバーを起動しますなのだ。",
	RunE:  serveCommand,
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗したのだ: %w", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("設定が不正なのだ: %w", err)
	}

	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if cfg.Credential() == "" {
		// 起動は止めず、画面でキーを選んでもらうのだ
		slog.Warn("API キーが設定されていません", "env", cfg.CredentialEnv)
	}

	gen, err := generator.NewGeminiGenerator(generator.NewGeminiImageCore(nil), cfg.FusionModel, cfg.ImagineModel)
	if err != nil {
		return fmt.Errorf("生成器の初期化に失敗したのだ: %w", err)
	}

	srv, err := server.New(cfg, server.Dependencies{Fusion: gen, Imagine: gen})
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗したのだ: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Web UI サーバーを起動するのだ！",
		"addr", cfg.Addr,
		"fusion_model", cfg.FusionModel,
		"imagine_model", cfg.ImagineModel)

	return srv.Run(ctx)
}

// applyFlags は指定されたフラグで設定を上書きします。
func applyFlags(cfg *config.Config, o serveOptions) {
	if o.Addr != "" {
		cfg.Addr = o.Addr
	}
	if o.FusionModel != "" {
		cfg.FusionModel = o.FusionModel
	}
	if o.ImagineModel != "" {
		cfg.ImagineModel = o.ImagineModel
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
}

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// serveOptions は CLI フラグから渡される実行時のパラメータなのだ。
// 指定されたフラグだけが環境変数の設定を上書きします。
type serveOptions struct {
	Addr         string // --addr
	FusionModel  string // --fusion-model
	ImagineModel string // --imagine-model
	LogLevel     string // --log-level
	LogFormat    string // --log-format
}

var opts serveOptions

var rootCmd = &cobra.Command{
	Use:   "gemini-fusion",
	Short: "画像を組み合わせて Gemini で新しい画像を生成する Web アプリなのだ。",
	Long: `スタイル画像・ベース画像・ポーズ画像と記述からプロンプトを組み立てて、
Gemini に画像を生成させるブラウザ UI を提供するのだ。
テキストだけから画像を作る画面もあるのだよ。`,
	SilenceUsage: true,
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(serveCmd)
}

// addAppFlags は全コマンド共通のフラグを定義するのだ。
func addAppFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", "", "待ち受けアドレス（環境変数 ADDR より優先）なのだ。")
	cmd.PersistentFlags().StringVar(&opts.FusionModel, "fusion-model", "", "画像融合に使う Gemini モデル名なのだ。")
	cmd.PersistentFlags().StringVar(&opts.ImagineModel, "imagine-model", "", "テキストからの画像生成に使うモデル名なのだ。")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "ログレベル（debug, info, warn, error）なのだ。")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "ログ形式（text, json）なのだ。")
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

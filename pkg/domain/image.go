package domain

import (
	"encoding/base64"
	"fmt"
)

// Role は画像スロットの役割です。並び順はプロンプトとペイロードの順序と一致します。
type Role string

const (
	RoleStyle Role = "style"
	RoleBase  Role = "base"
	RolePose  Role = "pose"
)

// Roles は固定順 (style, base, pose) のロール一覧を返すのだ。
func Roles() []Role {
	return []Role{RoleStyle, RoleBase, RolePose}
}

// ParseRole は文字列をロールに変換します。
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStyle, RoleBase, RolePose:
		return r, nil
	}
	return "", fmt.Errorf("unknown image role: %q", s)
}

// Label は UI とプロンプトで使う表示名です。
func (r Role) Label() string {
	switch r {
	case RoleStyle:
		return "Art Style"
	case RoleBase:
		return "Your Image"
	case RolePose:
		return "Pose Reference"
	}
	return string(r)
}

// Required は生成に必須のロールかどうかを返すのだ。
func (r Role) Required() bool {
	return r == RoleStyle || r == RoleBase
}

// ImageSlot はユーザーが選んだ1枚の画像です。
// Raw と Encoded は常に一緒に存在するか、一緒に空になります。
type ImageSlot struct {
	Name     string
	MIMEType string
	Raw      []byte // 読み込んだバイナリ
	Encoded  string // Raw の base64
}

// NewImageSlot は Raw から Encoded を導出してスロットを作るのだ。
func NewImageSlot(name, mimeType string, raw []byte) ImageSlot {
	if len(raw) == 0 {
		return ImageSlot{}
	}
	return ImageSlot{
		Name:     name,
		MIMEType: mimeType,
		Raw:      raw,
		Encoded:  base64.StdEncoding.EncodeToString(raw),
	}
}

// IsPopulated は画像が入っているかどうかを返します。
func (s ImageSlot) IsPopulated() bool {
	return len(s.Raw) > 0 && s.Encoded != ""
}

// DataURL はプレビュー表示用の data URL を返します。空なら空文字です。
func (s ImageSlot) DataURL() string {
	if !s.IsPopulated() {
		return ""
	}
	return "data:" + s.MIMEType + ";base64," + s.Encoded
}

// Flags はプロンプトの言い回しだけに影響する生成オプションです。
type Flags struct {
	PrintQuality bool
}

// FlagPrintQuality は印刷品質フラグの名前です。
const FlagPrintQuality = "print-quality"

// Set は名前でフラグを更新します。知らない名前なら false を返すのだ。
func (f *Flags) Set(name string, value bool) bool {
	switch name {
	case FlagPrintQuality:
		f.PrintQuality = value
		return true
	}
	return false
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
}

// DataURL は結果画像の表示用 data URL を返します。
func (r ImageResponse) DataURL() string {
	if len(r.Data) == 0 {
		return ""
	}
	return "data:" + r.MimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// ImagineOptions はテキストから画像生成する際の設定です。ゼロ値はデフォルトで補完されます。
type ImagineOptions struct {
	NumberOfImages int    `json:"numberOfImages"`
	OutputMIMEType string `json:"outputMimeType"`
	AspectRatio    string `json:"aspectRatio"`
}

const (
	DefaultNumberOfImages = 1
	MaxNumberOfImages     = 4
	DefaultOutputMIMEType = "image/jpeg"
	DefaultAspectRatio    = "1:1"
)

// WithDefaults は未指定の項目をデフォルト値で埋めたコピーを返すのだ。
// 枚数はサービスが受け付ける 1〜MaxNumberOfImages に丸めます。
func (o ImagineOptions) WithDefaults() ImagineOptions {
	if o.NumberOfImages <= 0 {
		o.NumberOfImages = DefaultNumberOfImages
	}
	if o.NumberOfImages > MaxNumberOfImages {
		o.NumberOfImages = MaxNumberOfImages
	}
	if o.OutputMIMEType == "" {
		o.OutputMIMEType = DefaultOutputMIMEType
	}
	if o.AspectRatio == "" {
		o.AspectRatio = DefaultAspectRatio
	}
	return o
}

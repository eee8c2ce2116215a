package imgutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"
)

// Info は画像ヘッダから読み取れる情報です。
type Info struct {
	MIMEType string
	Width    int
	Height   int
}

// heifBrands は ISO BMFF の ftyp ボックスに現れる HEIF 系のブランドと MIME タイプです。
var heifBrands = map[string]string{
	"heic": "image/heic",
	"heix": "image/heic",
	"hevc": "image/heic",
	"hevx": "image/heic",
	"heim": "image/heic",
	"heis": "image/heic",
	"mif1": "image/heif",
	"msf1": "image/heif",
	"heif": "image/heif",
}

// Inspect は画像データ（PNG, GIF, JPEG, WebP）のヘッダを解析し、MIMEタイプとサイズを返します。
// HEIC/HEIF はデコーダが無いので ftyp ブランドだけを確認し、サイズは 0 のままなのだ。
// 画像として読めないデータにはエラーを返します。ピクセルの変換は行いません。
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("画像データが空です")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if mimeType, ok := sniffHEIF(data); ok {
			return Info{MIMEType: mimeType}, nil
		}
		return Info{}, fmt.Errorf("画像ヘッダの解析に失敗しました: %w", err)
	}

	return Info{
		MIMEType: "image/" + format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

// ResolveMIMEType はクライアント申告の MIME タイプを優先し、
// 画像でなければ中身から判定した値を使うのだ。
func ResolveMIMEType(declared string, data []byte) string {
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	if info, err := Inspect(data); err == nil {
		return info.MIMEType
	}
	return http.DetectContentType(data)
}

// sniffHEIF は先頭の ftyp ボックスのメジャーブランドと互換ブランドを調べます。
func sniffHEIF(data []byte) (string, bool) {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return "", false
	}
	if mimeType, ok := heifBrands[string(data[8:12])]; ok {
		return mimeType, true
	}

	size := int(binary.BigEndian.Uint32(data[0:4]))
	if size > len(data) {
		size = len(data)
	}
	// 8..12 がメジャーブランド、12..16 がマイナーバージョン、以降が互換ブランド
	for off := 16; off+4 <= size; off += 4 {
		if mimeType, ok := heifBrands[string(data[off:off+4])]; ok {
			return mimeType, true
		}
	}
	return "", false
}

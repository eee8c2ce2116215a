package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
)

const (
	// BaseInstruction はスタイルと人物の融合、背景除去を指示する固定文です。
	BaseInstruction = "Combine the style and color palette of the first image (Art Style) with the face and identity of the second image (Your Image). Always remove the background of the second (Your Image) image."
	// PoseClause は3枚目（ポーズ参照）がある時だけ付きます。
	PoseClause = " Mimic the gesture or mood of the third image (Pose Reference)."
	// PrintQualityClause と DetailedClause は印刷品質フラグで切り替わるのだ。
	PrintQualityClause = " Output a realistic, high-detail, print-ready fusion."
	DetailedClause     = " Output a detailed and cohesive fusion."
	// DescriptionHeader はユーザー記述ブロックの見出しです。
	DescriptionHeader = "\n\n--- User Descriptions ---\n"
)

// Input は合成プロンプトの材料です。
type Input struct {
	Slots        map[domain.Role]domain.ImageSlot
	Descriptions map[domain.Role]string
	Flags        domain.Flags
}

// Compose は入力状態から合成プロンプトを組み立てる純粋関数なのだ。
// 同じ入力からは常にバイト単位で同じ文字列が返ります。
func Compose(in Input) string {
	var sb strings.Builder
	sb.WriteString(BaseInstruction)

	if in.Slots[domain.RolePose].IsPopulated() {
		sb.WriteString(PoseClause)
	}

	if in.Flags.PrintQuality {
		sb.WriteString(PrintQualityClause)
	} else {
		sb.WriteString(DetailedClause)
	}

	if block := descriptionBlock(in.Descriptions); block != "" {
		sb.WriteString(DescriptionHeader)
		sb.WriteString(block)
	}

	return strings.TrimSpace(sb.String())
}

// descriptionBlock は空でない記述をロール順に1行ずつ並べます。
func descriptionBlock(descriptions map[domain.Role]string) string {
	var lines []string
	for _, role := range domain.Roles() {
		text := descriptions[role]
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s Description: \"%s\"", role.Label(), text))
	}
	return strings.Join(lines, "\n")
}

package payload

import (
	"fmt"

	"github.com/shouni/gemini-fusion-kit/pkg/domain"
)

// Build は合成プロンプトと画像スロットから送信用ペイロードを組み立てます。
// 先頭はテキスト、続いて style, base, pose の順で画像が並ぶのだ。空の任意ロールは省略します。
// 必須ロールが欠けている場合は domain.ErrMissingRequiredInput を返し、ペイロードは作りません。
func Build(prompt string, slots map[domain.Role]domain.ImageSlot) (domain.Payload, error) {
	for _, role := range domain.Roles() {
		if role.Required() && !slots[role].IsPopulated() {
			return domain.Payload{}, fmt.Errorf("%w: %s image", domain.ErrMissingRequiredInput, role)
		}
	}

	segments := []domain.Segment{domain.TextSegment(prompt)}
	for _, role := range domain.Roles() {
		slot := slots[role]
		if !slot.IsPopulated() {
			continue
		}
		segments = append(segments, domain.InlineSegment(slot))
	}
	return domain.NewPayload(segments...), nil
}

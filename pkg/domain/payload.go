package domain

// Segment はリクエスト本体の1単位です。Text か (Data, MIMEType) のどちらかを持ちます。
type Segment struct {
	Text     string
	Data     []byte
	MIMEType string
}

// TextSegment はテキストのセグメントを作ります。
func TextSegment(text string) Segment {
	return Segment{Text: text}
}

// InlineSegment は画像スロットからインラインデータのセグメントを作ります。
func InlineSegment(slot ImageSlot) Segment {
	return Segment{Data: slot.Raw, MIMEType: slot.MIMEType}
}

// IsInline はバイナリを運ぶセグメントかどうかを返すのだ。
func (s Segment) IsInline() bool {
	return len(s.Data) > 0
}

// Payload は順序付きのセグメント列です。リクエストごとに作られ、作成後は変更されません。
type Payload struct {
	segments []Segment
}

// NewPayload はセグメント列をコピーしてペイロードを作ります。
func NewPayload(segments ...Segment) Payload {
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	return Payload{segments: cp}
}

// Segments はセグメントのコピーを返します。
func (p Payload) Segments() []Segment {
	cp := make([]Segment, len(p.segments))
	copy(cp, p.segments)
	return cp
}

// Len はセグメント数です。
func (p Payload) Len() int {
	return len(p.segments)
}

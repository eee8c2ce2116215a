package generator

const (
	DefaultFusionModel  = "gemini-2.5-flash-image"
	DefaultImagineModel = "imagen-4.0-generate-001"

	// DefaultFusionMIMEType はサービスが MIME タイプを省略した場合の値です。
	DefaultFusionMIMEType = "image/png"

	modalityImage = "IMAGE"
)

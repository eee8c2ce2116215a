package domain

import "errors"

// 失敗の種類ごとのセンチネルエラーです。呼び出し側は errors.Is で判定します。
var (
	ErrMissingCredential    = errors.New("API key is not configured")
	ErrMissingRequiredInput = errors.New("required input is missing")
	ErrDecode               = errors.New("image could not be decoded")
	ErrEmptyResult          = errors.New("No image was generated. The prompt may have been blocked.")
	ErrAuthorization        = errors.New("API key is invalid or not authorized")
	ErrTransport            = errors.New("generation request failed")
	ErrBusy                 = errors.New("a generation request is already in progress")
)

// ErrorKind は失敗の分類です。
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindMissingCredential
	KindMissingRequiredInput
	KindDecode
	KindEmptyResult
	KindAuthorization
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMissingCredential:
		return "missing_credential"
	case KindMissingRequiredInput:
		return "missing_required_input"
	case KindDecode:
		return "decode"
	case KindEmptyResult:
		return "empty_result"
	case KindAuthorization:
		return "authorization"
	case KindTransport:
		return "transport"
	}
	return "unknown"
}

// KindOf はセンチネルエラーから分類を引きます。該当しなければ KindTransport です。
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, ErrMissingRequiredInput):
		return KindMissingRequiredInput
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrEmptyResult):
		return KindEmptyResult
	case errors.Is(err, ErrAuthorization):
		return KindAuthorization
	}
	return KindTransport
}

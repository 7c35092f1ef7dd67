package imagepkg

import "errors"

var (
	// ErrFontUnavailable means the application font could not be read or
	// parsed. It is a deployment problem and aborts the whole batch.
	ErrFontUnavailable = errors.New("certificate font unavailable")

	ErrBackgroundNotFound = errors.New("background image not found")
	ErrBackgroundTooLarge = errors.New("background image exceeds size limit")
	ErrBackgroundDecode   = errors.New("background image could not be decoded")

	ErrQRPayload = errors.New("qr payload cannot be encoded")
)

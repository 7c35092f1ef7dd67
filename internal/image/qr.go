package imagepkg

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DefaultQRSize is the edge length used when a QR placement omits size.
	DefaultQRSize = 100

	// qrBoxSize is the native pixel size of one module before resampling.
	qrBoxSize = 10
)

// EncodeQR renders url as a sizePx × sizePx QR code on a transparent
// background. Only the dark modules remain opaque.
func EncodeQR(url string, sizePx int) (*image.NRGBA, error) {
	if sizePx <= 0 {
		sizePx = DefaultQRSize
	}

	q, err := qrcode.New(url, qrcode.Low)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQRPayload, err)
	}

	// A negative size asks for a fixed pixel count per module; the
	// library keeps its 4-module quiet zone around the symbol.
	grid := imaging.Clone(q.Image(-qrBoxSize))
	clearWhite(grid)

	return imaging.Resize(grid, sizePx, sizePx, imaging.Lanczos), nil
}

// GenerateQRPNG returns PNG bytes of a transparent QR code for the given text.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	img, err := EncodeQR(text, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}

// clearWhite makes every pure-white pixel fully transparent.
func clearWhite(img *image.NRGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] == 0xff && img.Pix[i+1] == 0xff && img.Pix[i+2] == 0xff {
			img.Pix[i+3] = 0
		}
	}
}

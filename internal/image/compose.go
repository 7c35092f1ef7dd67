package imagepkg

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/opentype"

	"github.com/youruser/certapp/internal/logging"
)

// DefaultFontPath is the application typeface, relative to the asset root.
const DefaultFontPath = "static/fonts/Montserrat-Medium.ttf"

// Compositor stamps text and QR codes onto certificate templates. It holds
// configuration only and is safe for concurrent use.
type Compositor struct {
	AssetRoot          string
	FontPath           string
	MaxBackgroundBytes int64
}

// NewCompositor returns a compositor reading assets below assetRoot. An
// empty fontPath selects DefaultFontPath; a relative one is resolved
// against assetRoot.
func NewCompositor(assetRoot, fontPath string, maxBackgroundBytes int64) *Compositor {
	if assetRoot == "" {
		assetRoot = "."
	}
	if fontPath == "" {
		fontPath = DefaultFontPath
	}
	return &Compositor{
		AssetRoot:          assetRoot,
		FontPath:           fontPath,
		MaxBackgroundBytes: maxBackgroundBytes,
	}
}

func (c *Compositor) fontFile() string {
	if filepath.IsAbs(c.FontPath) {
		return c.FontPath
	}
	return filepath.Join(c.AssetRoot, c.FontPath)
}

// Compose renders one certificate. A nil image with a nil error means the
// request was skipped; an error is returned only for configuration
// failures that make every certificate impossible, such as a missing font.
func (c *Compositor) Compose(req CertificateRequest) (*GeneratedImage, error) {
	if !req.Valid() {
		logging.Warn("certificate skipped: name or background missing", "name", req.Name, "bg_image_path", req.BackgroundImagePath)
		return nil, nil
	}

	canvas, err := c.loadBackground(req.BackgroundImagePath)
	if err != nil {
		logging.Warn("certificate skipped: background unavailable", "name", req.Name, "error", err)
		return nil, nil
	}

	var otf *opentype.Font
	for i, tf := range req.Texts {
		p, ok := tf.resolve()
		if !ok {
			logging.Debug("text field skipped: missing keys", "name", req.Name, "index", i)
			continue
		}
		if p.size <= 0 {
			logging.Warn("text field skipped: non-positive size", "name", req.Name, "index", i, "size", p.size)
			continue
		}
		if otf == nil {
			if otf, err = LoadFont(c.fontFile()); err != nil {
				return nil, err
			}
		}
		if err := stampText(canvas, otf, p); err != nil {
			return nil, err
		}
	}

	if qp, ok := req.QRCode.resolve(); ok {
		code, err := EncodeQR(qp.url, qp.size)
		if err != nil {
			logging.Warn("qr code skipped", "name", req.Name, "error", err)
		} else {
			canvas = imaging.Overlay(canvas, code, image.Pt(qp.x, qp.y), 1.0)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flatten(canvas), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode certificate %q: %w", req.Name, err)
	}
	return &GeneratedImage{Name: req.Name, Content: buf.Bytes()}, nil
}

func stampText(canvas *image.NRGBA, otf *opentype.Font, p textPlacement) error {
	face, err := NewFace(otf, p.size)
	if err != nil {
		return err
	}
	defer face.Close()

	_, height := Measure(p.content, face)
	left, top := DrawAnchor(p.x, p.y, height)
	drawText(canvas, face, p.content, left, top)
	return nil
}

// flatten drops the alpha channel, keeping the stored color values.
func flatten(src *image.NRGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+rowLen]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+rowLen]
		copy(d, s)
		for i := 3; i < rowLen; i += 4 {
			d[i] = 0xff
		}
	}
	return dst
}

package imagepkg

import "strings"

// TextField is one text stamp. Every key is optional on the wire; a field
// missing any of them is skipped without affecting the rest of the request.
type TextField struct {
	Content *string `json:"content"`
	X       *int    `json:"x"`
	Y       *int    `json:"y"`
	Size    *int    `json:"size"`
}

// QRSpec places a QR code. Size defaults to DefaultQRSize when absent.
type QRSpec struct {
	URL  *string `json:"url"`
	X    *int    `json:"x"`
	Y    *int    `json:"y"`
	Size *int    `json:"size"`
}

// CertificateRequest describes one certificate to composite.
type CertificateRequest struct {
	Name                string      `json:"name"`
	BackgroundImagePath string      `json:"bg_image_path"`
	Texts               []TextField `json:"texts"`
	QRCode              *QRSpec     `json:"qrcode"`
}

// GeneratedImage is a finished, opaque PNG.
type GeneratedImage struct {
	Name    string
	Content []byte
}

type textPlacement struct {
	content string
	x, y    int
	size    int
}

type qrPlacement struct {
	url  string
	x, y int
	size int
}

// Valid reports whether the request carries the keys required to render it.
// A name made only of whitespace cannot name an archive entry.
func (r CertificateRequest) Valid() bool {
	return strings.TrimSpace(r.Name) != "" && r.BackgroundImagePath != ""
}

func (t TextField) resolve() (textPlacement, bool) {
	if t.Content == nil || t.X == nil || t.Y == nil || t.Size == nil {
		return textPlacement{}, false
	}
	return textPlacement{content: *t.Content, x: *t.X, y: *t.Y, size: *t.Size}, true
}

func (q *QRSpec) resolve() (qrPlacement, bool) {
	if q == nil || q.URL == nil || q.X == nil || q.Y == nil {
		return qrPlacement{}, false
	}
	size := DefaultQRSize
	if q.Size != nil && *q.Size > 0 {
		size = *q.Size
	}
	return qrPlacement{url: *q.URL, x: *q.X, y: *q.Y, size: size}, true
}

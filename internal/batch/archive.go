package batch

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	imagepkg "github.com/youruser/certapp/internal/image"
	"github.com/youruser/certapp/internal/logging"
)

// entryTime is stamped on every archive entry so identical batches produce
// identical bytes.
var entryTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Composer renders a single certificate. A nil image with a nil error means
// the request was skipped.
type Composer interface {
	Compose(req imagepkg.CertificateRequest) (*imagepkg.GeneratedImage, error)
}

// Archiver renders batches into zip archives.
type Archiver struct {
	composer Composer
}

func NewArchiver(c Composer) *Archiver {
	return &Archiver{composer: c}
}

// BuildArchive renders requests in order and zips the results, one
// <name>.png entry per certificate. When names collide the later image
// replaces the earlier one in place.
func (a *Archiver) BuildArchive(ctx context.Context, reqs []imagepkg.CertificateRequest) ([]byte, error) {
	var (
		images []*imagepkg.GeneratedImage
		index  = map[string]int{}
	)
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := a.composer.Compose(req)
		if err != nil {
			return nil, err
		}
		if img == nil {
			continue
		}
		entry := entryName(img.Name)
		if i, ok := index[entry]; ok {
			logging.Warn("duplicate certificate name, keeping the latest", "entry", entry)
			images[i] = img
			continue
		}
		index[entry] = len(images)
		images = append(images, img)
	}

	if len(images) == 0 {
		return nil, ErrNoValidCertificates
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, img := range images {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     entryName(img.Name),
			Method:   zip.Deflate,
			Modified: entryTime,
		})
		if err != nil {
			return nil, fmt.Errorf("create zip entry: %w", err)
		}
		if _, err := w.Write(img.Content); err != nil {
			return nil, fmt.Errorf("write zip entry: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}

	logging.Info("archive built", "requested", len(reqs), "entries", len(images), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// entrySeparators percent-escapes path separators, and the escape byte
// itself, so every name maps to a distinct top-level entry.
var entrySeparators = strings.NewReplacer("%", "%25", "/", "%2F", "\\", "%5C")

// entryName is the certificate name verbatim plus ".png". Only path
// separators are escaped; whitespace and quotes are kept.
func entryName(name string) string {
	return entrySeparators.Replace(name) + ".png"
}

package records

import (
	"path"
	"strings"

	"github.com/youruser/certapp/internal/batch"
	imagepkg "github.com/youruser/certapp/internal/image"
)

// FinishedDateLayout is how completion dates are printed on certificates.
const FinishedDateLayout = "02.01.2006"

// VerifyURL is the public page a certificate's QR code points to.
func VerifyURL(frontendURL, uuid string) string {
	return strings.TrimRight(frontendURL, "/") + "/certificate/" + uuid
}

// Expand turns a set and its certificates into a renderable batch named
// after the set. Each certificate is stamped with the holder name, its
// public id, and the set's finished date, placed by its course's
// coordinates, on that course's image under mediaDir. Certificates without
// a course get no background and are skipped at render time.
func Expand(set CertificateSet, certs []Certificate, frontendURL, mediaDir string) batch.Batch {
	b := batch.Batch{
		ZipName:  set.Name,
		Requests: make([]imagepkg.CertificateRequest, 0, len(certs)),
	}
	finished := set.FinishedDate.Format(FinishedDateLayout)

	for _, c := range certs {
		req := imagepkg.CertificateRequest{Name: c.Name}
		if co := c.Course; co != nil {
			if co.Image != "" {
				req.BackgroundImagePath = path.Join(mediaDir, co.Image)
			}
			req.Texts = []imagepkg.TextField{
				textAt(c.Name, co.NameCoords),
				textAt(c.UUID, co.IDCoords),
				textAt(finished, co.FinishedDateCoords),
			}
			url := VerifyURL(frontendURL, c.UUID)
			req.QRCode = &imagepkg.QRSpec{
				URL:  &url,
				X:    co.QRCoords.X,
				Y:    co.QRCoords.Y,
				Size: co.QRCoords.Size,
			}
		}
		b.Requests = append(b.Requests, req)
	}
	return b
}

func textAt(content string, at Coordinates) imagepkg.TextField {
	return imagepkg.TextField{Content: &content, X: at.X, Y: at.Y, Size: at.Size}
}

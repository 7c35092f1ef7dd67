// Package batch turns a certificate batch payload into a zip of rendered
// certificates.
package batch

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	imagepkg "github.com/youruser/certapp/internal/image"
	"github.com/youruser/certapp/internal/logging"
)

// DefaultZipName names the archive when the payload does not.
const DefaultZipName = "certificates"

var (
	// ErrInvalidInputShape means the payload has no certificates list.
	ErrInvalidInputShape = errors.New("certificates must be a list")

	// ErrNoValidCertificates means every request in the batch was skipped.
	ErrNoValidCertificates = errors.New("no valid certificates to generate")
)

// Batch is one archive request. It lives for a single call.
type Batch struct {
	ZipName  string                        `json:"zip_name"`
	Requests []imagepkg.CertificateRequest `json:"certificates"`
}

// Filename is the download name of the archive.
func (b Batch) Filename() string {
	return sanitizeName(b.ZipName) + ".zip"
}

// Parse decodes a batch payload of the form
//
//	{"zip_name": "...", "certificates": [{...}, ...]}
//
// Elements that are not objects and keys of the wrong type are dropped one
// at a time; only a missing or non-list certificates value fails the batch.
func Parse(payload []byte, defaultZipName string) (*Batch, error) {
	if defaultZipName == "" {
		defaultZipName = DefaultZipName
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return nil, ErrInvalidInputShape
	}

	var items []json.RawMessage
	raw, ok := top["certificates"]
	if !ok || isNull(raw) {
		return nil, ErrInvalidInputShape
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrInvalidInputShape
	}

	b := &Batch{ZipName: defaultZipName, Requests: make([]imagepkg.CertificateRequest, 0, len(items))}
	var name string
	if decodeInto(top["zip_name"], &name) && strings.TrimSpace(name) != "" {
		b.ZipName = name
	}

	for i, item := range items {
		req, ok := decodeRequest(item)
		if !ok {
			logging.Warn("certificate entry ignored: not an object", "index", i)
			continue
		}
		b.Requests = append(b.Requests, req)
	}
	return b, nil
}

func decodeRequest(raw json.RawMessage) (imagepkg.CertificateRequest, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return imagepkg.CertificateRequest{}, false
	}

	var req imagepkg.CertificateRequest
	decodeInto(obj["name"], &req.Name)
	decodeInto(obj["bg_image_path"], &req.BackgroundImagePath)

	var texts []json.RawMessage
	if decodeInto(obj["texts"], &texts) {
		for _, t := range texts {
			var tf imagepkg.TextField
			if decodeInto(t, &tf) {
				req.Texts = append(req.Texts, tf)
			}
		}
	}

	var qr imagepkg.QRSpec
	if decodeInto(obj["qrcode"], &qr) {
		req.QRCode = &qr
	}
	return req, true
}

// decodeInto reports whether raw was present and decoded into v.
func decodeInto(raw json.RawMessage, v any) bool {
	if len(raw) == 0 || isNull(raw) {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

var nameReplacer = strings.NewReplacer("/", "_", "\\", "_", "\"", "'", "\n", " ", "\r", " ")

func sanitizeName(name string) string {
	name = strings.TrimSpace(nameReplacer.Replace(name))
	if name == "" {
		return DefaultZipName
	}
	return name
}

// MapHTTPStatus maps batch errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInputShape), errors.Is(err, ErrNoValidCertificates):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

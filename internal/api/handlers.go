package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/youruser/certapp/internal/batch"
	imagepkg "github.com/youruser/certapp/internal/image"
	"github.com/youruser/certapp/internal/logging"
	"github.com/youruser/certapp/internal/records"
)

const (
	defaultQRText = "certapp"
	defaultQRSize = 400
	maxQRSize     = 2000

	maxBatchBodyBytes = 10 << 20
)

var (
	errStoreDisabled = errors.New("certificate records are not configured")
	errBadQRSize     = fmt.Errorf("size must be between 1 and %d", maxQRSize)
)

// Store is the read side of the record store used by the gateway.
type Store interface {
	ListSets(ctx context.Context, f records.SetFilter) ([]records.CertificateSet, error)
	FindSet(ctx context.Context, id int64) (*records.CertificateSet, error)
	SetCertificates(ctx context.Context, setID int64) ([]records.Certificate, error)
	FindCertificate(ctx context.Context, uuid string) (*records.CertificateDetail, error)
}

// Archiver renders a batch into zip bytes.
type Archiver interface {
	BuildArchive(ctx context.Context, reqs []imagepkg.CertificateRequest) ([]byte, error)
}

// Options carries the certificate settings the handlers need.
type Options struct {
	FrontendURL    string
	MediaDir       string
	DefaultZipName string
}

// Handler serves the certificate endpoints. store may be nil, in which case
// the record endpoints answer 503.
type Handler struct {
	archiver Archiver
	store    Store
	opts     Options
}

func NewHandler(archiver Archiver, store Store, opts Options) *Handler {
	if opts.DefaultZipName == "" {
		opts.DefaultZipName = batch.DefaultZipName
	}
	return &Handler{archiver: archiver, store: store, opts: opts}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "records": h.store != nil})
}

// qr returns a transparent PNG QR code for the "text" query param.
func (h *Handler) qr(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		text = defaultQRText
	}
	size := defaultQRSize
	if s := c.Query("size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > maxQRSize {
			respondError(c, http.StatusBadRequest, errBadQRSize)
			return
		}
		size = v
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

// generateZip renders an ad hoc batch posted as JSON.
func (h *Handler) generateZip(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBatchBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, err)
			return
		}
		respondError(c, http.StatusBadRequest, err)
		return
	}

	b, err := batch.Parse(body, h.opts.DefaultZipName)
	if err != nil {
		respondError(c, batch.MapHTTPStatus(err), err)
		return
	}
	h.sendArchive(c, *b)
}

func (h *Handler) listSets(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	var f records.SetFilter
	statuses, err := records.ParseStatuses(c.Query("displayStatus"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	f.Statuses = statuses
	if s := c.Query("study_center"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Errorf("invalid study_center %q", s))
			return
		}
		f.StudyCenterID = &id
	}

	sets, err := h.store.ListSets(c.Request.Context(), f)
	if err != nil {
		respondError(c, records.MapHTTPStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, sets)
}

// generateSetZip renders every certificate of a stored set.
func (h *Handler) generateSetZip(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid set id %q", c.Param("id")))
		return
	}

	ctx := c.Request.Context()
	set, err := h.store.FindSet(ctx, id)
	if err != nil {
		respondError(c, records.MapHTTPStatus(err), err)
		return
	}
	certs, err := h.store.SetCertificates(ctx, set.ID)
	if err != nil {
		respondError(c, records.MapHTTPStatus(err), err)
		return
	}

	h.sendArchive(c, records.Expand(*set, certs, h.opts.FrontendURL, h.opts.MediaDir))
}

func (h *Handler) getCertificate(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	d, err := h.store.FindCertificate(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			err = errors.New("certificate not found")
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, records.MapHTTPStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) sendArchive(c *gin.Context, b batch.Batch) {
	data, err := h.archiver.BuildArchive(c.Request.Context(), b.Requests)
	if err != nil {
		respondError(c, batch.MapHTTPStatus(err), err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", b.Filename()))
	c.Data(http.StatusOK, "application/zip", data)
}

func (h *Handler) requireStore(c *gin.Context) bool {
	if h.store == nil {
		respondError(c, http.StatusServiceUnavailable, errStoreDisabled)
		return false
	}
	return true
}

func respondError(c *gin.Context, status int, err error) {
	kv := []any{"status", status, "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err}
	if status >= http.StatusInternalServerError {
		logging.Error("request failed", kv...)
	} else {
		logging.Warn("request rejected", kv...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

package report

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hofra/ingest/internal/response"
)

// Client-facing error messages.
const (
	msgMissingFile     = "No file uploaded or upload error"
	msgUnsupportedType = "Invalid file type. Only JPEG, PNG, and WebP are allowed"
	msgSaveFailed      = "Failed to save file"
)

// Handler holds the HTTP handler for report image uploads.
type Handler struct {
	svc                 *Service
	maxRequestSize      int64
	multipartMemory     int64
	trustForwardedProto bool
}

// HandlerOptions configures transport-level limits.
type HandlerOptions struct {
	MaxRequestSize      int64 // whole-body limit; exceeding it is a transfer error
	MultipartMemory     int64 // parts larger than this are buffered on disk
	TrustForwardedProto bool
}

// NewHandler creates a new report Handler.
func NewHandler(svc *Service, opts HandlerOptions) *Handler {
	return &Handler{
		svc:                 svc,
		maxRequestSize:      opts.MaxRequestSize,
		multipartMemory:     opts.MultipartMemory,
		trustForwardedProto: opts.TrustForwardedProto,
	}
}

type uploadResult struct {
	Success  bool   `json:"success"  example:"true"`
	Filename string `json:"filename" example:"7_1700000000_cv37img5tppgl2n9ga5g.png"`
	URL      string `json:"url"      example:"https://example.com/uploads/reports/7_1700000000_cv37img5tppgl2n9ga5g.png"`
	Path     string `json:"path"     example:"/uploads/reports/7_1700000000_cv37img5tppgl2n9ga5g.png"`
}

// Upload godoc
//
//	@Summary		Upload report image
//	@Description	Store a JPEG, PNG or WebP image (at most 5MB by default) and return its public URL. The type is detected from the file content, not from the declared header or extension.
//	@Tags			reports
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image		formData	file	true	"Image file"
//	@Param			userId		formData	string	false	"Uploader id, defaults to anonymous"
//	@Param			timestamp	formData	string	false	"Client timestamp, defaults to server Unix time"
//	@Success		200			{object}	uploadResult
//	@Failure		400			{object}	response.ErrorBody
//	@Failure		500			{object}	response.ErrorBody
//	@Router			/reports/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxRequestSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)
	}

	upload, cleanup, err := h.readUpload(r)
	defer cleanup()
	if err != nil {
		h.writeError(w, err)
		return
	}

	artifact, err := h.svc.Ingest(r.Context(), upload)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, uploadResult{
		Success:  true,
		Filename: artifact.Filename,
		URL:      h.absoluteURL(r, artifact.URL),
		Path:     artifact.Path,
	})
}

// readUpload parses the multipart body. Any transport failure, including a
// missing "image" part, is reported as ErrMissingFile.
func (h *Handler) readUpload(r *http.Request) (*Upload, func(), error) {
	cleanup := func() {}

	if err := r.ParseMultipartForm(h.multipartMemory); err != nil {
		return nil, cleanup, h.reject(fmt.Errorf("%w: parse form: %v", ErrMissingFile, err))
	}
	cleanup = func() { _ = r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, cleanup, h.reject(fmt.Errorf("%w: %v", ErrMissingFile, err))
	}
	removeForm := cleanup
	cleanup = func() {
		_ = file.Close()
		removeForm()
	}

	return &Upload{
		File:      file,
		Size:      header.Size,
		Filename:  header.Filename,
		UserID:    r.FormValue("userId"),
		Timestamp: r.FormValue("timestamp"),
	}, cleanup, nil
}

// reject records a transport-level rejection that never reaches the service.
func (h *Handler) reject(err error) error {
	h.svc.metrics.Observe(outcomeOf(err), 0)
	h.svc.log.WithError(err).Info("upload rejected")
	return err
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	response.Error(w, statusOf(err), h.message(err))
}

func (h *Handler) message(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return "File too large. Maximum size is " + formatLimit(h.svc.MaxFileSize())
	case errors.Is(err, ErrUnsupportedType):
		return msgUnsupportedType
	case errors.Is(err, ErrStorageWriteFailed):
		return msgSaveFailed
	default:
		return msgMissingFile
	}
}

// absoluteURL resolves a root-relative URL against the request's scheme and host.
func (h *Handler) absoluteURL(r *http.Request, u string) string {
	if !strings.HasPrefix(u, "/") {
		return u
	}
	return h.scheme(r) + "://" + r.Host + u
}

func (h *Handler) scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if h.trustForwardedProto && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return "https"
	}
	return "http"
}

// formatLimit renders whole mebibytes as "5MB" and anything else with go-humanize.
func formatLimit(n int64) string {
	if n > 0 && n%humanize.MiByte == 0 {
		return fmt.Sprintf("%dMB", n/humanize.MiByte)
	}
	return humanize.IBytes(uint64(n))
}

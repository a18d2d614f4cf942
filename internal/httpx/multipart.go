package httpx

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/objectstore"
)

type UploadLimits struct {
	MaxFiles    int
	MaxFileSize int64
}

// LimitBody caps the request body at what limits allow plus some slack for
// the multipart framing and text fields.
func LimitBody(c *gin.Context, limits UploadLimits) {
	limit := int64(limits.MaxFiles)*limits.MaxFileSize + 1<<20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
}

// Files reads the multipart files sent under field.
func Files(c *gin.Context, field string, limits UploadLimits) ([]objectstore.File, error) {
	LimitBody(c, limits)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.Validation("Upload is too large")
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, apperr.Validation("Request must be multipart/form-data")
		}
		return nil, apperr.Validation("Invalid multipart form", err.Error())
	}

	headers := form.File[field]
	if limits.MaxFiles > 0 && len(headers) > limits.MaxFiles {
		return nil, apperr.Validation(fmt.Sprintf("Too many files: at most %d allowed", limits.MaxFiles))
	}

	files := make([]objectstore.File, 0, len(headers))
	for _, fh := range headers {
		if limits.MaxFileSize > 0 && fh.Size > limits.MaxFileSize {
			return nil, apperr.Validation(fmt.Sprintf("File %s exceeds the %d MB limit", fh.Filename, limits.MaxFileSize>>20))
		}
		f, err := fromHeader(fh)
		if err != nil {
			return nil, apperr.Internal("Failed to read upload", err)
		}
		files = append(files, f)
	}
	return files, nil
}

func fromHeader(fh *multipart.FileHeader) (objectstore.File, error) {
	ct := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if ct == "" || ct == "application/octet-stream" {
		sniffed, err := sniff(fh)
		if err != nil {
			return objectstore.File{}, err
		}
		ct = sniffed
	}

	return objectstore.File{
		Name:        fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}, nil
}

func sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %w", fh.Filename, err)
	}
	ct, _, _ := strings.Cut(m.String(), ";")
	return ct, nil
}

package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/socialx-api/internal/application/media"
)

// multipartMemory is how much of a multipart body is buffered before spilling to disk.
const multipartMemory = 8 << 20

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// limitBody caps the request body a little above the largest accepted upload
// so the form fields still fit.
func limitBody(w http.ResponseWriter, r *http.Request, maxUpload int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+(1<<20))
}

// formFile returns the named file of a parsed multipart form, or nil when the
// field is absent. The caller closes the returned closer.
func formFile(r *http.Request, field string) (*media.UploadInput, io.Closer, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return uploadInput(file, header), file, nil
}

func uploadInput(file multipart.File, header *multipart.FileHeader) *media.UploadInput {
	return &media.UploadInput{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

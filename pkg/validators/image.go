package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrImageTooLarge    = errors.New("image too large")
	ErrImageUnsupported = errors.New("file does not have an approved extension: jpg, png")
	ErrNoImage          = errors.New("no image provided")
)

var (
	allowedImageExts  = []string{".jpg", ".jpeg", ".png"}
	allowedImageMimes = []string{"image/jpeg", "image/png"}
)

// ImageValidator checks an uploaded profile picture. The extension is
// checked first, which is easy to spoof but cheap, and then the actual
// content. On success the opened file is returned rewound to the start
func ImageValidator(fh *multipart.FileHeader, maxSize int64) (int, multipart.File, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, ErrNoImage
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(allowedImageExts, ext) {
		return http.StatusBadRequest, nil, ErrImageUnsupported
	}

	if maxSize > 0 && fh.Size > maxSize {
		return http.StatusRequestEntityTooLarge, nil, ErrImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	if !slices.ContainsFunc(allowedImageMimes, mime.Is) {
		f.Close()
		return http.StatusBadRequest, nil, ErrImageUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	return 0, f, nil
}

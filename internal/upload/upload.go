// Package upload holds the rules an image must pass before it is stored.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// MaxSize is the largest accepted image, in bytes.
const MaxSize int64 = 5 * 1024 * 1024

var (
	// ErrTooLarge indicates the file exceeds MaxSize.
	ErrTooLarge = errors.New("file too large (max 5MB)")

	// ErrUnsupportedType indicates a content type outside the allow-list,
	// or content that does not match its declared type.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrMissingFile indicates the request carried no file.
	ErrMissingFile = errors.New("missing file")

	// ErrEmptyFile indicates a zero-length file.
	ErrEmptyFile = errors.New("empty file")
)

// allowed maps each accepted MIME type to the extension stored files get.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
	"image/bmp":  ".bmp",
}

var aliases = map[string]string{
	"image/jpg":      "image/jpeg",
	"image/pjpeg":    "image/jpeg",
	"image/x-png":    "image/png",
	"image/x-ms-bmp": "image/bmp",
}

// AllowedTypes returns the accepted MIME types, sorted.
func AllowedTypes() []string {
	out := make([]string, 0, len(allowed))
	for t := range allowed {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NormalizeType strips parameters and resolves common aliases.
func NormalizeType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)
	if canonical, ok := aliases[mediaType]; ok {
		return canonical
	}
	return mediaType
}

// Allowed reports whether contentType is on the allow-list.
func Allowed(contentType string) bool {
	_, ok := allowed[NormalizeType(contentType)]
	return ok
}

// Validate checks the declared content type against the allow-list and the
// sniffed content. It returns the canonical content type.
func Validate(declared string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > MaxSize {
		return "", ErrTooLarge
	}
	contentType := NormalizeType(declared)
	if _, ok := allowed[contentType]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, declared)
	}

	sniffed := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(sniffed, "image/"):
		if NormalizeType(sniffed) != contentType {
			return "", fmt.Errorf("%w: declared %s but content is %s", ErrUnsupportedType, contentType, sniffed)
		}
	case sniffed == "application/octet-stream" && contentType == "image/avif":
		// avif is not sniffable
	default:
		return "", fmt.Errorf("%w: declared %s but content is %s", ErrUnsupportedType, contentType, sniffed)
	}
	return contentType, nil
}

// ReadLimited reads at most MaxSize bytes from r. Anything larger yields
// ErrTooLarge without returning partial data.
func ReadLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// NewName returns a collision-free stored file name for contentType. It never
// uses anything supplied by the client besides the validated type.
func NewName(contentType string) string {
	ext := allowed[NormalizeType(contentType)]
	return uuid.New().String() + ext
}

// Precheck runs the size and type checks a client can do before sending a
// file, without reading it.
func Precheck(size int64, contentType string) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > MaxSize {
		return ErrTooLarge
	}
	if !Allowed(contentType) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return nil
}

// TypeByExtension guesses a MIME type from a file name, falling back to
// sniffing head.
func TypeByExtension(name string, head []byte) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		if t := mime.TypeByExtension(strings.ToLower(name[i:])); t != "" {
			return NormalizeType(t)
		}
	}
	if len(head) > 0 {
		return NormalizeType(http.DetectContentType(head))
	}
	return "application/octet-stream"
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrObjectNotFound is returned by ReadFile when the object does not exist
var ErrObjectNotFound = errors.New("storage object not found")

// StorageClient stores generated letter documents.
// Both GCS and local storage implement it.
type StorageClient interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error)
	DeleteFile(ctx context.Context, objectName string) error
	ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
	GetSignedURL(objectName string, expiry time.Duration) (string, error)
	Close() error
}

// UploadResult contains the result of an upload operation
type UploadResult struct {
	ObjectName string `json:"objectName"`
	PublicURL  string `json:"publicUrl"`
	Size       int64  `json:"size"`
}

// LetterPDFObjectName names the PDF of a letter request. The letter number is
// folded into the file name so downloads are recognisable.
func LetterPDFObjectName(requestID, nomorSurat string, at time.Time) string {
	return fmt.Sprintf("letters/%s/%d_%s.pdf", requestID, at.Unix(), safeFileName(nomorSurat))
}

func safeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "surat"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// cleanObjectName rejects names that would escape the storage root
func cleanObjectName(objectName string) (string, error) {
	cleaned := path.Clean("/" + objectName)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(objectName, "/") {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	return cleaned, nil
}

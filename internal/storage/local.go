package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// LocalStorageClient implements StorageClient on the local filesystem
type LocalStorageClient struct {
	basePath  string
	baseURL   string
	secretKey string
	now       func() time.Time
}

// NewLocalStorageClient creates a new local storage client.
// baseURL can be empty when files are only streamed through the API.
func NewLocalStorageClient(basePath, baseURL, secretKey string) (*LocalStorageClient, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	if secretKey == "" {
		secretKey = "default-local-storage-key"
	}
	if baseURL == "" {
		baseURL = "internal://storage"
	}

	return &LocalStorageClient{
		basePath:  basePath,
		baseURL:   baseURL,
		secretKey: secretKey,
		now:       time.Now,
	}, nil
}

func (l *LocalStorageClient) fullPath(objectName string) (string, error) {
	name, err := cleanObjectName(objectName)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.basePath, filepath.FromSlash(name)), nil
}

// UploadFile writes the object, creating parent directories as needed
func (l *LocalStorageClient) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	fullPath, err := l.fullPath(objectName)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write data to file: %w", err)
	}

	return &UploadResult{
		ObjectName: objectName,
		PublicURL:  fmt.Sprintf("%s/%s", l.baseURL, objectName),
		Size:       size,
	}, nil
}

// DeleteFile removes the object. Missing objects are not an error.
func (l *LocalStorageClient) DeleteFile(ctx context.Context, objectName string) error {
	fullPath, err := l.fullPath(objectName)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	l.cleanEmptyDirs(filepath.Dir(fullPath))
	return nil
}

// cleanEmptyDirs removes empty parent directories up to basePath
func (l *LocalStorageClient) cleanEmptyDirs(dir string) {
	base := filepath.Clean(l.basePath)
	for dir != base && dir != "." && dir != string(filepath.Separator) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

func (l *LocalStorageClient) ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	fullPath, err := l.fullPath(objectName)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
		}
		return nil, fmt.Errorf("failed to open file %s: %w", fullPath, err)
	}
	return file, nil
}

// GetSignedURL returns a URL carrying an expiry and an HMAC signature
func (l *LocalStorageClient) GetSignedURL(objectName string, expiry time.Duration) (string, error) {
	expiresAt := l.now().Add(expiry).Unix()
	signature := l.sign(fmt.Sprintf("%s:%d", objectName, expiresAt))

	return fmt.Sprintf("%s/%s?expires=%d&signature=%s",
		l.baseURL, objectName, expiresAt, signature), nil
}

func (l *LocalStorageClient) sign(message string) string {
	h := hmac.New(sha256.New, []byte(l.secretKey))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignedURL verifies that a signed URL is valid and not expired
func (l *LocalStorageClient) VerifySignedURL(objectName string, expiresAt int64, signature string) bool {
	if l.now().Unix() > expiresAt {
		return false
	}
	expected := l.sign(fmt.Sprintf("%s:%d", objectName, expiresAt))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Close is a no-op for local storage
func (l *LocalStorageClient) Close() error {
	return nil
}

var _ StorageClient = (*LocalStorageClient)(nil)

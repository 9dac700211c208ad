package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSClient implements StorageClient on a Google Cloud Storage bucket
type GCSClient struct {
	client     *storage.Client
	bucketName string
}

// NewGCSClient connects to bucketName. With an empty credentialsPath the
// client uses application default credentials.
func NewGCSClient(ctx context.Context, bucketName, credentialsPath string) (*GCSClient, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{client: client, bucketName: bucketName}, nil
}

func (g *GCSClient) object(objectName string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucketName).Object(objectName)
}

func (g *GCSClient) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	w := g.object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	size, err := io.Copy(w, reader)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload %s: %w", objectName, err)
	}

	return &UploadResult{
		ObjectName: objectName,
		PublicURL:  fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucketName, objectName),
		Size:       size,
	}, nil
}

func (g *GCSClient) DeleteFile(ctx context.Context, objectName string) error {
	err := g.object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", objectName, err)
	}
	return nil
}

func (g *GCSClient) ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	r, err := g.object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
		}
		return nil, fmt.Errorf("failed to read %s: %w", objectName, err)
	}
	return r, nil
}

func (g *GCSClient) GetSignedURL(objectName string, expiry time.Duration) (string, error) {
	url, err := g.client.Bucket(g.bucketName).SignedURL(objectName, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for %s: %w", objectName, err)
	}
	return url, nil
}

func (g *GCSClient) Close() error {
	return g.client.Close()
}

var _ StorageClient = (*GCSClient)(nil)

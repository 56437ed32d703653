package backup

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSTransport implements CloudTransport for Google Cloud Storage.
type GCSTransport struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSTransport creates a GCSTransport from config. When no
// credentials path is set the client uses application default
// credentials.
func NewGCSTransport(config GCSConfig) (*GCSTransport, error) {
	if config.Bucket == "" {
		return nil, NewConfigurationError("GCS bucket is required", nil)
	}

	ctx := context.Background()

	var client *storage.Client
	var err error
	if config.CredentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(config.CredentialsPath))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, NewStorageError("failed to create GCS client", err)
	}

	return &GCSTransport{
		client: client,
		bucket: config.Bucket,
		prefix: config.Prefix,
	}, nil
}

// Name implements CloudTransport.
func (t *GCSTransport) Name() string {
	return "gcs"
}

// Upload copies an artifact to GCS.
func (t *GCSTransport) Upload(ctx context.Context, artifactPath string, data []byte) error {
	object := t.client.Bucket(t.bucket).Object(remoteKey(t.prefix, artifactPath))

	writer := object.NewWriter(ctx)
	writer.ContentType = "application/octet-stream"
	writer.Metadata = map[string]string{
		"artifact-checksum": ComputeChecksum(data),
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return NewStorageError(fmt.Sprintf("failed to write %s to GCS", artifactPath), err)
	}
	if err := writer.Close(); err != nil {
		return NewStorageError(fmt.Sprintf("failed to upload %s to GCS", artifactPath), err)
	}

	return nil
}

// Download fetches an artifact from GCS.
func (t *GCSTransport) Download(ctx context.Context, artifactPath string) ([]byte, error) {
	object := t.client.Bucket(t.bucket).Object(remoteKey(t.prefix, artifactPath))

	reader, err := object.NewReader(ctx)
	if err != nil {
		return nil, NewStorageError(fmt.Sprintf("failed to download %s from GCS", artifactPath), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, NewStorageError("failed to read GCS object body", err)
	}

	return data, nil
}

// Delete removes an artifact from GCS. A missing object is treated as
// already deleted.
func (t *GCSTransport) Delete(ctx context.Context, artifactPath string) error {
	object := t.client.Bucket(t.bucket).Object(remoteKey(t.prefix, artifactPath))

	err := object.Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return NewStorageError(fmt.Sprintf("failed to delete %s from GCS", artifactPath), err)
	}

	return nil
}

package backup

import (
	"context"
	"fmt"
	"path"
)

// CloudTransport copies snapshot artifacts to and from an off-site
// store. Implementations are addressed by the artifact's blob store
// path; how that maps onto the remote namespace is up to the
// implementation.
type CloudTransport interface {
	// Upload copies an artifact to the remote store.
	Upload(ctx context.Context, artifactPath string, data []byte) error

	// Download fetches an artifact from the remote store.
	Download(ctx context.Context, artifactPath string) ([]byte, error)

	// Delete removes an artifact from the remote store. Deleting a
	// missing artifact is not an error.
	Delete(ctx context.Context, artifactPath string) error

	// Name identifies the transport for logs.
	Name() string
}

// NewCloudTransport builds the transport selected by cfg, or nil when
// the provider is none.
func NewCloudTransport(cfg CloudConfig) (CloudTransport, error) {
	switch cfg.Provider {
	case CloudProviderNone, "":
		return nil, nil
	case CloudProviderS3:
		if cfg.S3 == nil {
			return nil, NewConfigurationError("s3 transport selected but not configured", nil)
		}
		return NewS3Transport(*cfg.S3)
	case CloudProviderGCS:
		if cfg.GCS == nil {
			return nil, NewConfigurationError("gcs transport selected but not configured", nil)
		}
		return NewGCSTransport(*cfg.GCS)
	case CloudProviderAzure:
		if cfg.Azure == nil {
			return nil, NewConfigurationError("azure transport selected but not configured", nil)
		}
		return NewAzureTransport(*cfg.Azure)
	default:
		return nil, NewConfigurationError(fmt.Sprintf("unsupported cloud provider: %s", cfg.Provider), nil)
	}
}

// remoteKey joins an optional prefix with the artifact path.
func remoteKey(prefix, artifactPath string) string {
	if prefix == "" {
		return artifactPath
	}
	return path.Join(prefix, artifactPath)
}

package backup

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/Azure/azure-storage-blob-go/azblob"
)

// AzureTransport implements CloudTransport for Azure Blob Storage.
type AzureTransport struct {
	serviceURL azblob.ServiceURL
	container  string
	prefix     string
}

// NewAzureTransport creates an AzureTransport from config.
func NewAzureTransport(config AzureConfig) (*AzureTransport, error) {
	if config.AccountName == "" || config.ContainerName == "" {
		return nil, NewConfigurationError("Azure account name and container are required", nil)
	}

	credential, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, NewStorageError("failed to create Azure credentials", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", config.AccountName))
	if err != nil {
		return nil, NewStorageError("failed to parse Azure service URL", err)
	}

	return &AzureTransport{
		serviceURL: azblob.NewServiceURL(*serviceURL, pipeline),
		container:  config.ContainerName,
		prefix:     config.Prefix,
	}, nil
}

// Name implements CloudTransport.
func (t *AzureTransport) Name() string {
	return "azure"
}

// Upload copies an artifact to Azure Blob Storage.
func (t *AzureTransport) Upload(ctx context.Context, artifactPath string, data []byte) error {
	blobURL := t.blockBlobURL(artifactPath)

	_, err := azblob.UploadBufferToBlockBlob(ctx, data, blobURL, azblob.UploadToBlockBlobOptions{
		BlockSize:   4 * 1024 * 1024,
		Parallelism: 16,
		Metadata: azblob.Metadata{
			"artifactchecksum": ComputeChecksum(data),
		},
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{
			ContentType: "application/octet-stream",
		},
	})
	if err != nil {
		return NewStorageError(fmt.Sprintf("failed to upload %s to Azure", artifactPath), err)
	}

	return nil
}

// Download fetches an artifact from Azure Blob Storage.
func (t *AzureTransport) Download(ctx context.Context, artifactPath string) ([]byte, error) {
	blobURL := t.blockBlobURL(artifactPath)

	response, err := blobURL.Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		return nil, NewStorageError(fmt.Sprintf("failed to download %s from Azure", artifactPath), err)
	}

	body := response.Body(azblob.RetryReaderOptions{MaxRetryRequests: 3})
	defer body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return nil, NewStorageError("failed to read Azure blob body", err)
	}

	return buf.Bytes(), nil
}

// Delete removes an artifact from Azure Blob Storage. A missing blob is
// treated as already deleted.
func (t *AzureTransport) Delete(ctx context.Context, artifactPath string) error {
	blobURL := t.blockBlobURL(artifactPath)

	_, err := blobURL.Delete(ctx, azblob.DeleteSnapshotsOptionInclude, azblob.BlobAccessConditions{})
	if err != nil {
		if stgErr, ok := err.(azblob.StorageError); ok && stgErr.ServiceCode() == azblob.ServiceCodeBlobNotFound {
			return nil
		}
		return NewStorageError(fmt.Sprintf("failed to delete %s from Azure", artifactPath), err)
	}

	return nil
}

func (t *AzureTransport) blockBlobURL(artifactPath string) azblob.BlockBlobURL {
	container := t.serviceURL.NewContainerURL(t.container)
	return container.NewBlockBlobURL(remoteKey(t.prefix, artifactPath))
}

package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Transport implements CloudTransport for Amazon S3.
type S3Transport struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3Transport creates an S3Transport from config.
func NewS3Transport(config S3Config) (*S3Transport, error) {
	if config.Bucket == "" {
		return nil, NewConfigurationError("S3 bucket is required", nil)
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"", // token
		)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, NewStorageError("failed to create AWS session", err)
	}

	return &S3Transport{
		client: s3.New(sess),
		bucket: config.Bucket,
		prefix: config.Prefix,
	}, nil
}

// Name implements CloudTransport.
func (t *S3Transport) Name() string {
	return "s3"
}

// Upload copies an artifact to S3.
func (t *S3Transport) Upload(ctx context.Context, artifactPath string, data []byte) error {
	key := remoteKey(t.prefix, artifactPath)

	_, err := t.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]*string{
			"artifact-checksum": aws.String(ComputeChecksum(data)),
		},
	})
	if err != nil {
		return NewStorageError(fmt.Sprintf("failed to upload %s to S3", artifactPath), err)
	}

	return nil
}

// Download fetches an artifact from S3.
func (t *S3Transport) Download(ctx context.Context, artifactPath string) ([]byte, error) {
	key := remoteKey(t.prefix, artifactPath)

	result, err := t.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, NewStorageError(fmt.Sprintf("failed to download %s from S3", artifactPath), err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, NewStorageError("failed to read S3 object body", err)
	}

	return data, nil
}

// Delete removes an artifact from S3. S3 object deletion is already
// idempotent.
func (t *S3Transport) Delete(ctx context.Context, artifactPath string) error {
	key := remoteKey(t.prefix, artifactPath)

	_, err := t.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return NewStorageError(fmt.Sprintf("failed to delete %s from S3", artifactPath), err)
	}

	return nil
}

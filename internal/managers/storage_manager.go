package managers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// StorageMgr stores user avatar images and returns their public URL.
type StorageMgr interface {
	UploadAvatar(ctx context.Context, userID int64, body io.Reader, contentType string) (string, error)
}

// S3StorageManager implements StorageMgr against any S3-compatible endpoint
// (AWS S3 or MinIO).
type S3StorageManager struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3StorageManager builds the S3 client from environment configuration:
// S3_REGION, S3_ENDPOINT, S3_BUCKET, S3_ACCESS_KEY, S3_SECRET_KEY and
// S3_PUBLIC_URL.
func NewS3StorageManager() (StorageMgr, error) {
	log.Info("Initializing storage manager")

	region := os.Getenv("S3_REGION")
	endpoint := os.Getenv("S3_ENDPOINT")
	bucket := os.Getenv("S3_BUCKET")

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("S3_ACCESS_KEY"),
			os.Getenv("S3_SECRET_KEY"),
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicBaseURL := os.Getenv("S3_PUBLIC_URL")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("%s/%s", endpoint, bucket)
	}

	return &S3StorageManager{
		client:        client,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
	}, nil
}

// UploadAvatar stores the avatar under a per-user key, overwriting any
// previous image, and returns the public URL of the object.
func (sm *S3StorageManager) UploadAvatar(ctx context.Context, userID int64, body io.Reader, contentType string) (string, error) {
	key := fmt.Sprintf("avatars/user_%d", userID)

	_, err := sm.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(sm.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s", sm.publicBaseURL, key), nil
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/utils"
)

// S3Interface defines the storage operations for device photos
type S3Interface interface {
	UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error)
	GetPresignedURL(ctx context.Context, s3Key string) (string, error)
	DeleteFile(ctx context.Context, s3Key string) error
}

// S3Service stores device photos in an S3 bucket
type S3Service struct {
	client *s3.Client
	bucket string
}

// InitS3Service initializes the S3 service with AWS credentials
func InitS3Service(ctx context.Context) (S3Interface, error) {
	cfg := appConfig.GetConfig()

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Service{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.AWSS3Bucket,
	}, nil
}

// UploadFile uploads a file under prefix and returns its S3 key
func (s *S3Service) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Format: repair-requests/{request id}/{timestamp}_{filename}
	filename := filepath.Base(fileHeader.Filename)
	s3Key := fmt.Sprintf("%s/%d_%s", prefix, time.Now().Unix(), filename)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(utils.ContentType(filename)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s3Key, nil
}

// GetPresignedURL generates a presigned URL for a private object.
// The URL expires after 1 hour.
func (s *S3Service) GetPresignedURL(ctx context.Context, s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}

	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3Key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = time.Hour
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}

// DeleteFile deletes an object from the bucket
func (s *S3Service) DeleteFile(ctx context.Context, s3Key string) error {
	if s3Key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3Key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// LocalStorageService keeps device photos on local disk when no bucket is configured.
// Keys are file names inside dir and URLs point at the uploads endpoint.
type LocalStorageService struct {
	dir string
}

// NewLocalStorageService stores files under dir
func NewLocalStorageService(dir string) *LocalStorageService {
	return &LocalStorageService{dir: dir}
}

// UploadFile saves the file and returns its file name. The prefix is folded
// into the name since local files live in one flat directory.
func (s *LocalStorageService) UploadFile(_ context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	return utils.SaveUploadedFile(fileHeader, s.dir, filepath.Base(prefix))
}

// GetPresignedURL returns the public uploads path of a stored file
func (s *LocalStorageService) GetPresignedURL(_ context.Context, key string) (string, error) {
	return utils.GetImageURL(key), nil
}

// DeleteFile removes a stored file. Missing files are ignored.
func (s *LocalStorageService) DeleteFile(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(key))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

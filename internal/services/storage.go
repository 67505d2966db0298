package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// StorageConfig selects S3 when region, keys and bucket are all set and
// local disk otherwise.
type StorageConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UploadDir string
	BaseURL   string
}

// Storage stores generated documents in S3 or under a local directory.
type Storage struct {
	s3Client  *s3.S3
	uploader  *s3manager.Uploader
	useS3     bool
	bucket    string
	region    string
	baseURL   string
	uploadDir string
}

// NewStorage initializes either S3 or local storage based on configuration
func NewStorage(cfg StorageConfig) (*Storage, error) {
	if cfg.Region != "" && cfg.AccessKey != "" && cfg.SecretKey != "" && cfg.Bucket != "" {
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(cfg.Region),
			Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}

		log.Println("[STORAGE] AWS S3 storage initialized")
		return &Storage{
			s3Client: s3.New(sess),
			uploader: s3manager.NewUploader(sess),
			useS3:    true,
			bucket:   cfg.Bucket,
			region:   cfg.Region,
		}, nil
	}

	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = "/app/uploads"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if err := os.MkdirAll(filepath.Join(uploadDir, "documents"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	log.Println("[STORAGE] AWS S3 not configured, using local file storage")
	return &Storage{baseURL: baseURL, uploadDir: uploadDir}, nil
}

// SaveDocument writes data under folder and returns its public URL.
func (s *Storage) SaveDocument(ctx context.Context, folder, filename, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(filename))
	if s.useS3 {
		return s.uploadToS3(ctx, folder, name, contentType, data)
	}
	return s.saveLocally(folder, name, data)
}

func (s *Storage) uploadToS3(ctx context.Context, folder, name, contentType string, data []byte) (string, error) {
	key := folder + "/" + name
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func (s *Storage) saveLocally(folder, name string, data []byte) (string, error) {
	folderPath := filepath.Join(s.uploadDir, folder)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create folder directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(folderPath, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return fmt.Sprintf("%s/uploads/%s", s.baseURL, filepath.ToSlash(filepath.Join(folder, name))), nil
}

// DeleteDocument removes a document previously returned by SaveDocument.
func (s *Storage) DeleteDocument(ctx context.Context, fileURL string) error {
	key, err := s.keyFromURL(fileURL)
	if err != nil {
		return err
	}
	if s.useS3 {
		_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	}
	err = os.Remove(filepath.Join(s.uploadDir, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// keyFromURL recovers the object key, folder included, from a public URL.
func (s *Storage) keyFromURL(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid document url: %w", err)
	}
	key := strings.TrimPrefix(parsed.Path, "/")
	if !s.useS3 {
		key = strings.TrimPrefix(key, "uploads/")
	}
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid document url %q", fileURL)
	}
	return key, nil
}

// UploadDir is the local directory served under /uploads, empty for S3.
func (s *Storage) UploadDir() string {
	if s.useS3 {
		return ""
	}
	return s.uploadDir
}

// IsUsingS3 returns true if S3 storage is being used
func (s *Storage) IsUsingS3() bool {
	return s.useS3
}

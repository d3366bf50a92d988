package minio

import (
	"context"
	"fmt"
	"io"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage is the MinIO-backed media store: uploaded recordings in one
// bucket, analysis reports and annotated renders in another.
type Storage struct {
	client           *miniogo.Client
	recordingsBucket string
	artifactsBucket  string
}

type StorageConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	UseSSL           bool
	RecordingsBucket string
	ArtifactsBucket  string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:           client,
		recordingsBucket: cfg.RecordingsBucket,
		artifactsBucket:  cfg.ArtifactsBucket,
	}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.recordingsBucket, s.artifactsBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *Storage) PutRecording(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.recordingsBucket, key, r, size, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put recording: %w", err)
	}
	return nil
}

func (s *Storage) DownloadRecording(ctx context.Context, key string, destPath string) error {
	return s.client.FGetObject(ctx, s.recordingsBucket, key, destPath, miniogo.GetObjectOptions{})
}

func (s *Storage) RemoveRecording(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.recordingsBucket, key, miniogo.RemoveObjectOptions{})
}

func (s *Storage) UploadReport(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.artifactsBucket, key, r, size, miniogo.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	return nil
}

func (s *Storage) UploadAnnotated(ctx context.Context, key string, srcPath string) error {
	_, err := s.client.FPutObject(ctx, s.artifactsBucket, key, srcPath, miniogo.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return fmt.Errorf("upload annotated video: %w", err)
	}
	return nil
}

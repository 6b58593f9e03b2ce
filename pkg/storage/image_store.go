// Package storage uploads the file picked in the form to object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/models"
)

type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

type ImageStore struct {
	client     objectClient
	endpoint   string
	bucket     string
	secure     bool
	previewTTL time.Duration
}

func NewImageStore(ctx context.Context, cfg config.Minio) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init Minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("created bucket %s", cfg.Bucket)
	}
	return &ImageStore{
		client:     client,
		endpoint:   cfg.Endpoint,
		bucket:     cfg.Bucket,
		secure:     cfg.Secure,
		previewTTL: cfg.PreviewTTL,
	}, nil
}

// Upload stores the file under a fresh object name and returns its public
// URL together with a presigned preview URL.
func (s *ImageStore) Upload(ctx context.Context, file models.FileHandle, data io.Reader) (models.UploadedImage, error) {
	name := objectName(file.Name)
	_, err := s.client.PutObject(ctx, s.bucket, name, data, file.Size, minio.PutObjectOptions{ContentType: file.ContentType})
	if err != nil {
		return models.UploadedImage{}, fmt.Errorf("failed to upload image to Minio: %w", err)
	}

	uploaded := models.UploadedImage{RemoteURL: s.objectURL(name)}
	if s.previewTTL > 0 {
		preview, err := s.client.PresignedGetObject(ctx, s.bucket, name, s.previewTTL, nil)
		if err != nil {
			//the form still works without a preview
			log.Printf("failed to presign preview of %s: %v", name, err)
		} else {
			uploaded.PreviewURL = preview.String()
		}
	}
	return uploaded, nil
}

func (s *ImageStore) objectURL(name string) string {
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, name)
}

func objectName(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return time.Now().UTC().Format("2006-01-02") + "/" + uuid.NewString() + ext
}

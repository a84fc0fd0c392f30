package services

import (
  "context"
  "fmt"
  "io"
  "os"
  "time"

  "cloud.google.com/go/storage"
  "github.com/google/uuid"
  "google.golang.org/api/option"

  "github.com/yungbote/reelforge-backend/internal/logger"
)

type BucketCategory string

const (
  BucketCategoryAudio     BucketCategory = "narration_audio"
  BucketCategoryImage     BucketCategory = "segment_image"
  BucketCategoryVideo     BucketCategory = "rendered_video"
  BucketCategoryThumbnail BucketCategory = "thumbnail"
  BucketCategoryAvatar    BucketCategory = "user_avatar"
)

type BucketService interface {
  UploadFile(ctx context.Context, key string, file io.Reader) error
  DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
  DeleteFile(ctx context.Context, key string) error

  // StoreAsset writes the bytes at a fresh versioned key and returns the
  // public URL plus the gs:// URI. Every call creates a new object; there is
  // no dedupe and no expiry.
  StoreAsset(ctx context.Context, category BucketCategory, pathHint string, contentType string, data []byte) (publicURL string, gsURI string, err error)

  GetPublicURL(key string) string
}

type bucketService struct {
  log           *logger.Logger
  storageClient *storage.Client
  bucketName    string
  cdnDomain     string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
  serviceLog := log.With("service", "BucketService")
  bucket := os.Getenv("GCS_BUCKET_NAME")
  if bucket == "" {
    return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
  }
  cdnDomain := os.Getenv("CDN_DOMAIN")
  saPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
  if saPath == "" {
    serviceLog.Warn("GOOGLE_APPLICATION_CREDENTIALS_JSON not set; storage client will rely on ADC")
  }
  ctx := context.Background()
  var stClient *storage.Client
  var err error
  if saPath != "" {
    stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
  } else {
    stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
  }
  if err != nil {
    return nil, fmt.Errorf("failed to create storage client: %w", err)
  }
  return &bucketService{
    log:           serviceLog,
    storageClient: stClient,
    bucketName:    bucket,
    cdnDomain:     cdnDomain,
  }, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
  ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
  defer cancel()
  w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
  if _, err := io.Copy(w, file); err != nil {
    _ = w.Close()
    return fmt.Errorf("failed to write data to GCS: %w", err)
  }
  if err := w.Close(); err != nil {
    return fmt.Errorf("failed to close GCS writer: %w", err)
  }
  return nil
}

func (bs *bucketService) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
  rc, err := bs.storageClient.Bucket(bs.bucketName).Object(key).NewReader(ctx)
  if err != nil {
    return nil, fmt.Errorf("failed to open GCS object %q: %w", key, err)
  }
  return rc, nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
  ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
  defer cancel()
  o := bs.storageClient.Bucket(bs.bucketName).Object(key)
  if err := o.Delete(ctx); err != nil {
    return fmt.Errorf("failed to delete GCS object %q: %w", key, err)
  }
  return nil
}

func (bs *bucketService) StoreAsset(ctx context.Context, category BucketCategory, pathHint string, contentType string, data []byte) (string, string, error) {
  ext := extensionForContentType(contentType)
  key := fmt.Sprintf("%s/%s/%d%s", category, uuid.New().String(), time.Now().UnixNano(), ext)
  if pathHint != "" {
    key = fmt.Sprintf("%s/%s/%d%s", category, pathHint, time.Now().UnixNano(), ext)
  }

  ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
  defer cancel()
  w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
  w.ContentType = contentType
  if _, err := w.Write(data); err != nil {
    _ = w.Close()
    return "", "", fmt.Errorf("%w: write %q: %v", ErrStorage, key, err)
  }
  if err := w.Close(); err != nil {
    return "", "", fmt.Errorf("%w: close %q: %v", ErrStorage, key, err)
  }

  return bs.GetPublicURL(key), fmt.Sprintf("gs://%s/%s", bs.bucketName, key), nil
}

func (bs *bucketService) GetPublicURL(key string) string {
  if bs.cdnDomain != "" {
    return fmt.Sprintf("https://%s/%s", bs.cdnDomain, key)
  }
  return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}

func extensionForContentType(contentType string) string {
  switch contentType {
  case "audio/mpeg":
    return ".mp3"
  case "audio/wav", "audio/x-wav":
    return ".wav"
  case "image/png":
    return ".png"
  case "image/jpeg":
    return ".jpg"
  case "video/mp4":
    return ".mp4"
  }
  return ""
}

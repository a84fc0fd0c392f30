package services

import (
  "context"
  "fmt"
  "strings"

  "github.com/yungbote/reelforge-backend/internal/logger"
)

// ImageProviderService produces one image per script segment. Vendor failure
// degrades to a locally rendered placeholder for that segment; the caller
// never retries.
type ImageProviderService interface {
  GenerateSegmentImage(ctx context.Context, prompt string, style string) (string, error)
  // PlaceholderImage renders and stores the stock fallback frame directly,
  // without touching the vendor.
  PlaceholderImage(ctx context.Context, label string, style string) (string, error)
}

type imageProviderService struct {
  log         *logger.Logger
  ai          OpenAIClient
  bucket      BucketService
  placeholder *PlaceholderRenderer
}

func NewImageProviderService(baseLog *logger.Logger, ai OpenAIClient, bucket BucketService, placeholder *PlaceholderRenderer) ImageProviderService {
  return &imageProviderService{
    log:         baseLog.With("service", "ImageProviderService"),
    ai:          ai,
    bucket:      bucket,
    placeholder: placeholder,
  }
}

func (s *imageProviderService) GenerateSegmentImage(ctx context.Context, prompt string, style string) (string, error) {
  fullPrompt := prompt
  if style != "" {
    fullPrompt = fmt.Sprintf("%s. Style: %s. Vertical 9:16 composition.", prompt, style)
  }

  data, err := s.ai.GenerateImage(ctx, fullPrompt, "1024x1792")
  if err != nil {
    s.log.Warn("image vendor failed; using placeholder", "error", err)
    data, err = s.placeholder.Render(placeholderLabel(prompt), style)
    if err != nil {
      return "", fmt.Errorf("render placeholder: %w", err)
    }
  }

  url, _, err := s.bucket.StoreAsset(ctx, BucketCategoryImage, "", "image/png", data)
  if err != nil {
    return "", err
  }
  return url, nil
}

func (s *imageProviderService) PlaceholderImage(ctx context.Context, label string, style string) (string, error) {
  data, err := s.placeholder.Render(label, style)
  if err != nil {
    return "", fmt.Errorf("render placeholder: %w", err)
  }
  url, _, err := s.bucket.StoreAsset(ctx, BucketCategoryImage, "", "image/png", data)
  if err != nil {
    return "", err
  }
  return url, nil
}

func placeholderLabel(prompt string) string {
  words := strings.Fields(prompt)
  if len(words) > 6 {
    words = words[:6]
  }
  return strings.Join(words, " ")
}

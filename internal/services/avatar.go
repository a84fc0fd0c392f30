package services

import (
  "bytes"
  "context"
  "encoding/hex"
  "encoding/json"
  "fmt"
  "image/color"
  "math/rand"
  "os"
  "strings"
  "time"

  _ "image/jpeg"
  _ "image/png"

  "github.com/fogleman/gg"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
  "golang.org/x/image/font"
)

// AvatarService renders the initials avatar assigned to new accounts.
type AvatarService interface {
  CreateAndUploadUserAvatar(ctx context.Context, user *types.UserAccount) error
  GenerateUserAvatar(user *types.UserAccount) (bytes.Buffer, error)
}

type avatarService struct {
  log           *logger.Logger
  bucketService BucketService

  bgColors []color.NRGBA
  fontFace font.Face
}

func NewAvatarService(log *logger.Logger, bucketService BucketService) (AvatarService, error) {
  serviceLog := log.With("service", "AvatarService")

  colorsJSONPath := os.Getenv("AVATAR_COLORS_JSON_PATH")
  if strings.TrimSpace(colorsJSONPath) == "" {
    return nil, fmt.Errorf("env var AVATAR_COLORS_JSON_PATH is empty")
  }

  bgColors, err := loadColorsFromFile(colorsJSONPath)
  if err != nil {
    return nil, fmt.Errorf("could not load avatar colors: %w", err)
  }
  if len(bgColors) == 0 {
    return nil, fmt.Errorf("avatar colors list is empty")
  }

  fontPath := os.Getenv("AVATAR_FONT")
  if strings.TrimSpace(fontPath) == "" {
    return nil, fmt.Errorf("env var AVATAR_FONT is empty")
  }
  face, err := loadFontFace(fontPath, 206)
  if err != nil {
    return nil, fmt.Errorf("could not load avatar font: %w", err)
  }

  return &avatarService{
    log:           serviceLog,
    bucketService: bucketService,
    bgColors:      bgColors,
    fontFace:      face,
  }, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, user *types.UserAccount) error {
  buf, err := as.GenerateUserAvatar(user)
  if err != nil {
    return err
  }

  oldKey := strings.TrimSpace(user.AvatarBucketKey)

  // versioned key so CDN/browser cannot serve stale cached content
  newKey := fmt.Sprintf("%s/%s/%d.png", BucketCategoryAvatar, user.ID.String(), time.Now().UnixNano())

  if err := as.bucketService.UploadFile(ctx, newKey, bytes.NewReader(buf.Bytes())); err != nil {
    return fmt.Errorf("failed to upload user avatar: %w", err)
  }

  user.AvatarBucketKey = newKey
  user.AvatarURL = as.bucketService.GetPublicURL(newKey)

  if oldKey != "" && oldKey != newKey {
    if err := as.bucketService.DeleteFile(ctx, oldKey); err != nil {
      as.log.Warn("failed to delete old avatar (ignored)", "oldKey", oldKey, "error", err)
    }
  }

  return nil
}

func (as *avatarService) GenerateUserAvatar(user *types.UserAccount) (bytes.Buffer, error) {
  const size = 512

  dc := gg.NewContext(size, size)

  dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
  dc.Clip()

  base := as.bgColors[rand.Intn(len(as.bgColors))]
  dc.SetColor(base)
  dc.DrawRectangle(0, 0, float64(size), float64(size))
  dc.Fill()

  initials := computeInitials(user.Name, user.Email)

  dc.SetFontFace(as.fontFace)
  tw, th := dc.MeasureString(initials)
  cx, cy := float64(size)/2, float64(size)/2

  dc.SetColor(color.White)
  dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

  var buf bytes.Buffer
  if err := dc.EncodePNG(&buf); err != nil {
    return buf, fmt.Errorf("failed to encode PNG: %w", err)
  }
  return buf, nil
}

func computeInitials(name, email string) string {
  parts := strings.Fields(strings.TrimSpace(name))
  if len(parts) >= 2 {
    return strings.ToUpper(parts[0][:1] + parts[len(parts)-1][:1])
  }
  if len(parts) == 1 && len(parts[0]) > 0 {
    return strings.ToUpper(parts[0][:1])
  }
  if len(email) > 0 {
    return strings.ToUpper(email[:1])
  }
  return "?"
}

func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
  data, err := os.ReadFile(jsonPath)
  if err != nil {
    return nil, fmt.Errorf("read file error: %w", err)
  }
  var hexes []string
  if err := json.Unmarshal(data, &hexes); err != nil {
    return nil, fmt.Errorf("json unmarshal error: %w", err)
  }
  colors := make([]color.NRGBA, 0, len(hexes))
  for _, h := range hexes {
    r, g, b, err := parseHexRGB(h)
    if err != nil {
      return nil, fmt.Errorf("invalid color %q: %w", h, err)
    }
    colors = append(colors, color.NRGBA{R: r, G: g, B: b, A: 0xFF})
  }
  return colors, nil
}

func parseHexRGB(s string) (r, g, b uint8, err error) {
  s = strings.TrimSpace(s)
  if strings.HasPrefix(s, "#") {
    s = s[1:]
  }
  if len(s) != 6 {
    return 0, 0, 0, fmt.Errorf("expected 6 hex chars")
  }
  raw, err := hex.DecodeString(s)
  if err != nil || len(raw) != 3 {
    return 0, 0, 0, fmt.Errorf("invalid hex")
  }
  return raw[0], raw[1], raw[2], nil
}

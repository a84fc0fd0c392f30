package services

import (
  "bytes"
  "context"
  "crypto/hmac"
  "crypto/rand"
  "crypto/sha256"
  "encoding/hex"
  "encoding/json"
  "fmt"
  "io"
  "mime/multipart"
  "net/http"
  "os"
  "strings"
  "time"

  "github.com/google/uuid"
  "golang.org/x/oauth2"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/repos"
  "github.com/yungbote/reelforge-backend/internal/types"
)

// Platform upload size ceilings in bytes.
const (
  instagramMaxUploadBytes = 100 << 20
  youtubeMaxUploadBytes   = 256 << 20
)

type SocialPublishService interface {
  BuildAuthURL(userEmail, platform string) (string, error)
  HandleCallback(ctx context.Context, platform, code, state string) (string, error)
  Upload(ctx context.Context, userEmail, platform string, videoID uuid.UUID, title, description string, hashtags []string) (string, error)
}

type socialPublishService struct {
  db          *gorm.DB
  log         *logger.Logger
  videoRepo   repos.VideoRepo
  socialRepo  repos.SocialConnectionRepo
  stateSecret []byte
  httpClient  *http.Client

  oauthConfigs map[string]*oauth2.Config
}

func NewSocialPublishService(
  db *gorm.DB,
  baseLog *logger.Logger,
  videoRepo repos.VideoRepo,
  socialRepo repos.SocialConnectionRepo,
) (SocialPublishService, error) {
  secret := os.Getenv("SOCIAL_STATE_SECRET")
  if secret == "" {
    return nil, fmt.Errorf("missing SOCIAL_STATE_SECRET")
  }

  configs := map[string]*oauth2.Config{
    types.SocialPlatformInstagram: {
      ClientID:     os.Getenv("INSTAGRAM_CLIENT_ID"),
      ClientSecret: os.Getenv("INSTAGRAM_CLIENT_SECRET"),
      RedirectURL:  os.Getenv("INSTAGRAM_REDIRECT_URL"),
      Scopes:       []string{"instagram_business_basic", "instagram_business_content_publish"},
      Endpoint: oauth2.Endpoint{
        AuthURL:  "https://api.instagram.com/oauth/authorize",
        TokenURL: "https://api.instagram.com/oauth/access_token",
      },
    },
    types.SocialPlatformYouTube: {
      ClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
      ClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
      RedirectURL:  os.Getenv("YOUTUBE_REDIRECT_URL"),
      Scopes:       []string{"https://www.googleapis.com/auth/youtube.upload"},
      Endpoint: oauth2.Endpoint{
        AuthURL:  "https://accounts.google.com/o/oauth2/auth",
        TokenURL: "https://oauth2.googleapis.com/token",
      },
    },
  }

  return &socialPublishService{
    db:           db,
    log:          baseLog.With("service", "SocialPublishService"),
    videoRepo:    videoRepo,
    socialRepo:   socialRepo,
    stateSecret:  []byte(secret),
    httpClient:   &http.Client{Timeout: 10 * time.Minute},
    oauthConfigs: configs,
  }, nil
}

func (s *socialPublishService) config(platform string) (*oauth2.Config, error) {
  cfg, ok := s.oauthConfigs[platform]
  if !ok {
    return nil, fmt.Errorf("%w: unsupported platform %q", ErrValidation, platform)
  }
  if cfg.ClientID == "" || cfg.ClientSecret == "" {
    return nil, fmt.Errorf("%w: platform %q is not configured", ErrAuth, platform)
  }
  return cfg, nil
}

// ---- OAuth state (CSRF binding: <nonce>:<userEmail> HMAC-signed) ----

func (s *socialPublishService) buildState(userEmail string) (string, error) {
  nonceBytes := make([]byte, 16)
  if _, err := rand.Read(nonceBytes); err != nil {
    return "", err
  }
  nonce := hex.EncodeToString(nonceBytes)
  payload := nonce + ":" + userEmail
  mac := hmac.New(sha256.New, s.stateSecret)
  mac.Write([]byte(payload))
  return payload + ":" + hex.EncodeToString(mac.Sum(nil)), nil
}

// verifyState returns the bound user email.
func (s *socialPublishService) verifyState(state string) (string, error) {
  idx := strings.LastIndex(state, ":")
  if idx <= 0 {
    return "", fmt.Errorf("%w: malformed state", ErrAuth)
  }
  payload, sig := state[:idx], state[idx+1:]
  mac := hmac.New(sha256.New, s.stateSecret)
  mac.Write([]byte(payload))
  expected := hex.EncodeToString(mac.Sum(nil))
  if !hmac.Equal([]byte(expected), []byte(sig)) {
    return "", fmt.Errorf("%w: state signature mismatch", ErrAuth)
  }
  parts := strings.SplitN(payload, ":", 2)
  if len(parts) != 2 || parts[1] == "" {
    return "", fmt.Errorf("%w: state missing user marker", ErrAuth)
  }
  return parts[1], nil
}

func (s *socialPublishService) BuildAuthURL(userEmail, platform string) (string, error) {
  cfg, err := s.config(platform)
  if err != nil {
    return "", err
  }
  state, err := s.buildState(userEmail)
  if err != nil {
    return "", err
  }
  return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

func (s *socialPublishService) HandleCallback(ctx context.Context, platform, code, state string) (string, error) {
  cfg, err := s.config(platform)
  if err != nil {
    return "", err
  }
  userEmail, err := s.verifyState(state)
  if err != nil {
    return "", err
  }

  token, err := cfg.Exchange(ctx, code)
  if err != nil {
    return "", fmt.Errorf("%w: code exchange: %v", ErrAuth, err)
  }

  accessToken := token.AccessToken
  expiresAt := token.Expiry

  if platform == types.SocialPlatformInstagram {
    longLived, longExpiry, llErr := s.exchangeInstagramLongLived(ctx, cfg.ClientSecret, accessToken)
    if llErr != nil {
      s.log.Warn("instagram long-lived exchange failed; keeping short-lived token", "error", llErr)
    } else {
      accessToken = longLived
      expiresAt = longExpiry
    }
  }

  conn := &types.SocialConnection{
    UserEmail:    userEmail,
    Platform:     platform,
    AccessToken:  accessToken,
    RefreshToken: token.RefreshToken,
  }
  if !expiresAt.IsZero() {
    conn.ExpiresAt = &expiresAt
  }
  if err := s.socialRepo.Upsert(ctx, nil, conn); err != nil {
    return "", fmt.Errorf("persist connection: %w", err)
  }
  return userEmail, nil
}

func (s *socialPublishService) exchangeInstagramLongLived(ctx context.Context, clientSecret, shortToken string) (string, time.Time, error) {
  url := fmt.Sprintf(
    "https://graph.instagram.com/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
    clientSecret, shortToken,
  )
  req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
  if err != nil {
    return "", time.Time{}, err
  }
  resp, err := s.httpClient.Do(req)
  if err != nil {
    return "", time.Time{}, err
  }
  defer resp.Body.Close()

  raw, _ := io.ReadAll(resp.Body)
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return "", time.Time{}, fmt.Errorf("long-lived exchange http %d: %s", resp.StatusCode, truncate(string(raw), 300))
  }
  var out struct {
    AccessToken string `json:"access_token"`
    ExpiresIn   int64  `json:"expires_in"`
  }
  if err := json.Unmarshal(raw, &out); err != nil {
    return "", time.Time{}, err
  }
  if out.AccessToken == "" {
    return "", time.Time{}, fmt.Errorf("long-lived exchange returned no token")
  }
  return out.AccessToken, time.Now().Add(time.Duration(out.ExpiresIn) * time.Second), nil
}

// ---- Upload ----

func (s *socialPublishService) Upload(ctx context.Context, userEmail, platform string, videoID uuid.UUID, title, description string, hashtags []string) (string, error) {
  conn, err := s.socialRepo.GetByUserAndPlatform(ctx, nil, userEmail, platform)
  if err != nil {
    return "", fmt.Errorf("load connection: %w", err)
  }
  if conn == nil || conn.AccessToken == "" {
    return "", fmt.Errorf("%w: %s account not connected", ErrAuth, platform)
  }
  if conn.ExpiresAt != nil && conn.ExpiresAt.Before(time.Now()) {
    return "", fmt.Errorf("%w: %s token expired, reconnect the account", ErrAuth, platform)
  }

  videos, err := s.videoRepo.GetByIDs(ctx, nil, []uuid.UUID{videoID})
  if err != nil {
    return "", fmt.Errorf("load video: %w", err)
  }
  if len(videos) == 0 || videos[0] == nil || videos[0].CreatedBy != userEmail {
    return "", fmt.Errorf("%w: video not found", ErrValidation)
  }
  video := videos[0]
  if video.VideoURL == nil || *video.VideoURL == "" {
    return "", fmt.Errorf("%w: video has no rendered file to publish", ErrValidation)
  }

  data, err := s.fetchVideo(ctx, *video.VideoURL)
  if err != nil {
    return "", fmt.Errorf("download video: %w", err)
  }

  caption := buildCaption(title, description, hashtags)

  switch platform {
  case types.SocialPlatformInstagram:
    if len(data) > instagramMaxUploadBytes {
      return "", fmt.Errorf("%w: video exceeds the 100MB Instagram limit", ErrValidation)
    }
    return s.uploadInstagram(ctx, conn.AccessToken, *video.VideoURL, caption)
  case types.SocialPlatformYouTube:
    if len(data) > youtubeMaxUploadBytes {
      return "", fmt.Errorf("%w: video exceeds the 256MB YouTube limit", ErrValidation)
    }
    return s.uploadYouTube(ctx, conn.AccessToken, data, title, caption)
  default:
    return "", fmt.Errorf("%w: unsupported platform %q", ErrValidation, platform)
  }
}

func (s *socialPublishService) fetchVideo(ctx context.Context, url string) ([]byte, error) {
  req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
  if err != nil {
    return nil, err
  }
  resp, err := s.httpClient.Do(req)
  if err != nil {
    return nil, err
  }
  defer resp.Body.Close()
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return nil, fmt.Errorf("fetch video http %d", resp.StatusCode)
  }
  return io.ReadAll(resp.Body)
}

func buildCaption(title, description string, hashtags []string) string {
  parts := []string{}
  if strings.TrimSpace(title) != "" {
    parts = append(parts, strings.TrimSpace(title))
  }
  if strings.TrimSpace(description) != "" {
    parts = append(parts, strings.TrimSpace(description))
  }
  tags := make([]string, 0, len(hashtags))
  for _, h := range hashtags {
    h = strings.TrimSpace(h)
    if h == "" {
      continue
    }
    if !strings.HasPrefix(h, "#") {
      h = "#" + h
    }
    tags = append(tags, h)
  }
  if len(tags) > 0 {
    parts = append(parts, strings.Join(tags, " "))
  }
  return strings.Join(parts, "\n\n")
}

// uploadInstagram runs the two-step container flow: create a media
// container referencing the stored URL, then publish it.
func (s *socialPublishService) uploadInstagram(ctx context.Context, accessToken, videoURL, caption string) (string, error) {
  createBody := map[string]string{
    "media_type": "REELS",
    "video_url":  videoURL,
    "caption":    caption,
  }
  var created struct {
    ID string `json:"id"`
  }
  if err := s.postJSON(ctx, "instagram", "https://graph.instagram.com/v19.0/me/media?access_token="+accessToken, createBody, &created); err != nil {
    return "", err
  }
  if created.ID == "" {
    return "", &VendorError{Vendor: "instagram", Message: "media container creation returned no id"}
  }

  publishBody := map[string]string{"creation_id": created.ID}
  var published struct {
    ID string `json:"id"`
  }
  if err := s.postJSON(ctx, "instagram", "https://graph.instagram.com/v19.0/me/media_publish?access_token="+accessToken, publishBody, &published); err != nil {
    return "", err
  }
  if published.ID == "" {
    return "", &VendorError{Vendor: "instagram", Message: "publish returned no media id"}
  }
  return "https://www.instagram.com/reel/" + published.ID + "/", nil
}

func (s *socialPublishService) uploadYouTube(ctx context.Context, accessToken string, data []byte, title, description string) (string, error) {
  meta := map[string]any{
    "snippet": map[string]any{
      "title":       title,
      "description": description,
    },
    "status": map[string]any{
      "privacyStatus": "public",
    },
  }

  var body bytes.Buffer
  writer := multipart.NewWriter(&body)

  metaPart, err := writer.CreatePart(map[string][]string{"Content-Type": {"application/json; charset=UTF-8"}})
  if err != nil {
    return "", err
  }
  if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
    return "", err
  }
  videoPart, err := writer.CreatePart(map[string][]string{"Content-Type": {"video/mp4"}})
  if err != nil {
    return "", err
  }
  if _, err := videoPart.Write(data); err != nil {
    return "", err
  }
  if err := writer.Close(); err != nil {
    return "", err
  }

  url := "https://www.googleapis.com/upload/youtube/v3/videos?uploadType=multipart&part=snippet,status"
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
  if err != nil {
    return "", err
  }
  req.Header.Set("Authorization", "Bearer "+accessToken)
  req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

  resp, err := s.httpClient.Do(req)
  if err != nil {
    return "", &VendorError{Vendor: "youtube", Message: err.Error(), Err: err}
  }
  defer resp.Body.Close()

  raw, _ := io.ReadAll(resp.Body)
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return "", &VendorError{
      Vendor:  "youtube",
      Code:    fmt.Sprintf("http_%d", resp.StatusCode),
      Message: truncate(string(raw), 500),
    }
  }
  var out struct {
    ID string `json:"id"`
  }
  if err := json.Unmarshal(raw, &out); err != nil || out.ID == "" {
    return "", &VendorError{Vendor: "youtube", Message: "upload response missing video id", Err: err}
  }
  return "https://www.youtube.com/watch?v=" + out.ID, nil
}

func (s *socialPublishService) postJSON(ctx context.Context, vendor, url string, body any, out any) error {
  raw, err := json.Marshal(body)
  if err != nil {
    return err
  }
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
  if err != nil {
    return err
  }
  req.Header.Set("Content-Type", "application/json")

  resp, err := s.httpClient.Do(req)
  if err != nil {
    return &VendorError{Vendor: vendor, Message: err.Error(), Err: err}
  }
  defer resp.Body.Close()

  respBody, _ := io.ReadAll(resp.Body)
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return &VendorError{
      Vendor:  vendor,
      Code:    fmt.Sprintf("http_%d", resp.StatusCode),
      Message: truncate(string(respBody), 500),
    }
  }
  if out != nil {
    if err := json.Unmarshal(respBody, out); err != nil {
      return &VendorError{Vendor: vendor, Message: "unexpected response shape", Err: err}
    }
  }
  return nil
}

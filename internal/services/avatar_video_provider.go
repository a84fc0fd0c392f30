package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "os"
  "strings"
  "time"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/utils"
)

type AvatarVideoRequest struct {
  AvatarImageURL string   `json:"avatar_image_url"`
  AudioURL       string   `json:"audio_url"`
  Script         string   `json:"script"`
  Gestures       []string `json:"gestures,omitempty"`
}

// AvatarVideoProviderService submits a talking-avatar job and polls it to a
// terminal state. One submit, no resubmission; the fallback order across
// vendors is owned by the sequencer.
type AvatarVideoProviderService interface {
  Name() string
  GenerateAvatarVideo(ctx context.Context, req *AvatarVideoRequest) (string, error)
}

type pollState int

const (
  pollStateSubmitted pollState = iota
  pollStatePolling
  pollStateDone
  pollStateTimedOut
  pollStateVendorError
)

type avatarVideoProviderService struct {
  log        *logger.Logger
  name       string
  baseURL    string
  apiKey     string
  httpClient *http.Client

  pollInterval time.Duration
  maxPolls     int
}

// NewAvatarVideoProviderService builds one vendor instance from its env
// prefix (e.g. AVATAR_PRIMARY, AVATAR_SECONDARY).
func NewAvatarVideoProviderService(log *logger.Logger, name, envPrefix string) (AvatarVideoProviderService, error) {
  serviceLog := log.With("service", "AvatarVideoProviderService", "vendor", name)

  baseURL := strings.TrimRight(os.Getenv(envPrefix+"_BASE_URL"), "/")
  if baseURL == "" {
    return nil, fmt.Errorf("missing %s_BASE_URL", envPrefix)
  }
  apiKey := os.Getenv(envPrefix + "_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing %s_API_KEY", envPrefix)
  }

  pollIntervalSec := utils.GetEnvAsInt(envPrefix+"_POLL_INTERVAL_SECONDS", 5, serviceLog)
  maxPolls := utils.GetEnvAsInt(envPrefix+"_MAX_POLLS", 60, serviceLog)

  return &avatarVideoProviderService{
    log:          serviceLog,
    name:         name,
    baseURL:      baseURL,
    apiKey:       apiKey,
    httpClient:   &http.Client{Timeout: 60 * time.Second},
    pollInterval: time.Duration(pollIntervalSec) * time.Second,
    maxPolls:     maxPolls,
  }, nil
}

func (s *avatarVideoProviderService) Name() string { return s.name }

type avatarJobStatus struct {
  JobID    string `json:"job_id"`
  Status   string `json:"status"`
  VideoURL string `json:"video_url"`
  Error    string `json:"error"`
}

func (s *avatarVideoProviderService) GenerateAvatarVideo(ctx context.Context, req *AvatarVideoRequest) (string, error) {
  if req == nil || req.AudioURL == "" {
    return "", fmt.Errorf("avatar video request requires audio url")
  }

  jobID, err := s.submit(ctx, req)
  if err != nil {
    return "", err
  }

  state := pollStateSubmitted
  attempt := 0
  var result avatarJobStatus
  var pollErr error

  for state == pollStateSubmitted || state == pollStatePolling {
    if attempt >= s.maxPolls {
      state = pollStateTimedOut
      break
    }

    select {
    case <-ctx.Done():
      return "", ctx.Err()
    case <-time.After(s.pollInterval):
    }

    attempt++
    state = pollStatePolling

    result, pollErr = s.poll(ctx, jobID)
    if pollErr != nil {
      state = pollStateVendorError
      break
    }
    switch result.Status {
    case "done", "completed":
      state = pollStateDone
    case "failed", "error":
      state = pollStateVendorError
      pollErr = fmt.Errorf("job failed: %s", result.Error)
    }
  }

  switch state {
  case pollStateDone:
    if result.VideoURL == "" {
      return "", &VendorError{Vendor: s.name, Message: "job done but no video url"}
    }
    return result.VideoURL, nil
  case pollStateTimedOut:
    return "", &VendorError{Vendor: s.name, Code: "poll_timeout", Message: fmt.Sprintf("gave up after %d polls", attempt)}
  default:
    msg := "unknown vendor failure"
    if pollErr != nil {
      msg = pollErr.Error()
    }
    return "", &VendorError{Vendor: s.name, Message: msg, Err: pollErr}
  }
}

func (s *avatarVideoProviderService) submit(ctx context.Context, req *AvatarVideoRequest) (string, error) {
  body, err := json.Marshal(req)
  if err != nil {
    return "", err
  }
  httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/avatar-videos", bytes.NewReader(body))
  if err != nil {
    return "", err
  }
  httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
  httpReq.Header.Set("Content-Type", "application/json")

  resp, err := s.httpClient.Do(httpReq)
  if err != nil {
    return "", &VendorError{Vendor: s.name, Message: err.Error(), Err: err}
  }
  defer resp.Body.Close()

  raw, _ := io.ReadAll(resp.Body)
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return "", &VendorError{
      Vendor:  s.name,
      Code:    fmt.Sprintf("http_%d", resp.StatusCode),
      Message: truncate(string(raw), 500),
    }
  }

  var out avatarJobStatus
  if err := json.Unmarshal(raw, &out); err != nil {
    return "", &VendorError{Vendor: s.name, Message: "unexpected submit response shape", Err: err}
  }
  if out.JobID == "" {
    return "", &VendorError{Vendor: s.name, Message: "submit response missing job_id"}
  }
  return out.JobID, nil
}

func (s *avatarVideoProviderService) poll(ctx context.Context, jobID string) (avatarJobStatus, error) {
  var out avatarJobStatus

  httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/avatar-videos/"+jobID, nil)
  if err != nil {
    return out, err
  }
  httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

  resp, err := s.httpClient.Do(httpReq)
  if err != nil {
    return out, err
  }
  defer resp.Body.Close()

  raw, _ := io.ReadAll(resp.Body)
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return out, fmt.Errorf("poll http %d: %s", resp.StatusCode, truncate(string(raw), 300))
  }
  if err := json.Unmarshal(raw, &out); err != nil {
    return out, fmt.Errorf("decode poll response: %w", err)
  }
  return out, nil
}

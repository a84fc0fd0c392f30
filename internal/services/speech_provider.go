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
)

// SpeechResult is either a direct audio payload or a vendor-hosted URL,
// depending on what the vendor returned. Callers normalize to a stored URL
// before continuing.
type SpeechResult struct {
  AudioData   []byte
  AudioURL    string
  ContentType string
}

type SpeechProviderService interface {
  SynthesizeSpeech(ctx context.Context, text, voice, language string) (*SpeechResult, error)
}

type speechProviderService struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  httpClient *http.Client
}

func NewSpeechProviderService(log *logger.Logger) (SpeechProviderService, error) {
  baseURL := strings.TrimRight(os.Getenv("TTS_BASE_URL"), "/")
  if baseURL == "" {
    return nil, fmt.Errorf("missing TTS_BASE_URL")
  }
  apiKey := os.Getenv("TTS_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing TTS_API_KEY")
  }
  return &speechProviderService{
    log:        log.With("service", "SpeechProviderService"),
    baseURL:    baseURL,
    apiKey:     apiKey,
    httpClient: &http.Client{Timeout: 3 * time.Minute},
  }, nil
}

func (s *speechProviderService) SynthesizeSpeech(ctx context.Context, text, voice, language string) (*SpeechResult, error) {
  if strings.TrimSpace(text) == "" {
    return nil, fmt.Errorf("text required")
  }

  payload := map[string]string{
    "text":     text,
    "voice":    voice,
    "language": language,
  }
  body, err := json.Marshal(payload)
  if err != nil {
    return nil, err
  }

  req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/speech", bytes.NewReader(body))
  if err != nil {
    return nil, err
  }
  req.Header.Set("Authorization", "Bearer "+s.apiKey)
  req.Header.Set("Content-Type", "application/json")

  resp, err := s.httpClient.Do(req)
  if err != nil {
    return nil, &VendorError{Vendor: "tts", Message: err.Error(), Err: err}
  }
  defer resp.Body.Close()

  raw, err := io.ReadAll(resp.Body)
  if err != nil {
    return nil, &VendorError{Vendor: "tts", Message: "read response: " + err.Error(), Err: err}
  }
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return nil, &VendorError{
      Vendor:  "tts",
      Code:    fmt.Sprintf("http_%d", resp.StatusCode),
      Message: truncate(string(raw), 500),
    }
  }

  ct := resp.Header.Get("Content-Type")
  if strings.HasPrefix(ct, "audio/") {
    return &SpeechResult{AudioData: raw, ContentType: ct}, nil
  }

  var out struct {
    AudioURL string `json:"audio_url"`
  }
  if err := json.Unmarshal(raw, &out); err != nil {
    return nil, &VendorError{Vendor: "tts", Message: "unexpected response shape", Err: err}
  }
  if out.AudioURL == "" {
    return nil, &VendorError{Vendor: "tts", Message: "response missing audio_url"}
  }
  return &SpeechResult{AudioURL: out.AudioURL, ContentType: "audio/mpeg"}, nil
}

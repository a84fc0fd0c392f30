package services

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "net/http"
  "os"
  "strconv"
  "strings"
  "time"

  "github.com/yungbote/reelforge-backend/internal/logger"
)

type OpenAIClient interface {
  GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
  GenerateImage(ctx context.Context, prompt string, size string) ([]byte, error)
}

type openAIClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  model      string
  imageModel string
  httpClient *http.Client
}

func NewOpenAIClient(log *logger.Logger) (OpenAIClient, error) {
  apiKey := os.Getenv("OPENAI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing OPENAI_API_KEY")
  }

  baseURL := os.Getenv("OPENAI_BASE_URL")
  if baseURL == "" {
    baseURL = "https://api.openai.com"
  }

  model := os.Getenv("OPENAI_MODEL")
  if model == "" {
    model = "gpt-4o"
  }

  imageModel := os.Getenv("OPENAI_IMAGE_MODEL")
  if imageModel == "" {
    imageModel = "gpt-image-1"
  }

  timeoutSec := 180
  if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }

  return &openAIClient{
    log:        log.With("service", "OpenAIClient"),
    baseURL:    baseURL,
    apiKey:     apiKey,
    model:      model,
    imageModel: imageModel,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }, nil
}

type openAIHTTPError struct {
  StatusCode int
  Body       string
}

func (e *openAIHTTPError) Error() string {
  return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

// do issues exactly one request. Retry and fallback policy belongs to the
// caller, not the client.
func (c *openAIClient) do(ctx context.Context, method, path string, body any, out any) error {
  var buf bytes.Buffer
  if body != nil {
    if err := json.NewEncoder(&buf).Encode(body); err != nil {
      return err
    }
  }

  req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
  if err != nil {
    return err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiKey)
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return err
  }

  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return readErr
  }

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
  }
  if out == nil {
    return nil
  }
  if uErr := json.Unmarshal(raw, out); uErr != nil {
    return fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw))
  }
  return nil
}

// ---- Responses JSON (Structured Outputs via text.format json_schema) ----

type responsesRequest struct {
  Model string `json:"model"`
  Input []struct {
    Role    string `json:"role"`
    Content string `json:"content"`
  } `json:"input"`
  Text struct {
    Format map[string]any `json:"format"`
  } `json:"text"`
  Temperature float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
  Output []struct {
    Type    string `json:"type"`
    Role    string `json:"role,omitempty"`
    Content []struct {
      Type string `json:"type"`
      Text string `json:"text,omitempty"`
    } `json:"content,omitempty"`
  } `json:"output"`
  Refusal string `json:"refusal,omitempty"`
}

func (c *openAIClient) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
  if schemaName == "" {
    return nil, errors.New("schemaName required")
  }
  if schema == nil {
    return nil, errors.New("schema required")
  }

  req := responsesRequest{
    Model: c.model,
    Input: []struct {
      Role    string `json:"role"`
      Content string `json:"content"`
    }{
      {Role: "system", Content: system},
      {Role: "user", Content: user},
    },
    Temperature: 0.2,
  }
  req.Text.Format = map[string]any{
    "type":   "json_schema",
    "name":   schemaName,
    "schema": schema,
    "strict": true,
  }

  var resp responsesResponse
  if err := c.do(ctx, "POST", "/v1/responses", req, &resp); err != nil {
    return nil, err
  }
  if resp.Refusal != "" {
    return nil, fmt.Errorf("model refused: %s", resp.Refusal)
  }

  var jsonText string
  for _, item := range resp.Output {
    if item.Type == "message" && item.Role == "assistant" {
      for _, cc := range item.Content {
        if cc.Type == "output_text" && cc.Text != "" {
          jsonText += cc.Text
        }
      }
    }
  }
  if jsonText == "" {
    return nil, fmt.Errorf("no output_text found in response")
  }

  var obj map[string]any
  if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
    return nil, fmt.Errorf("failed to parse model JSON: %w; text=%s", err, jsonText)
  }
  return obj, nil
}

// ---- Images ----

type imagesRequest struct {
  Model  string `json:"model"`
  Prompt string `json:"prompt"`
  Size   string `json:"size,omitempty"`
  N      int    `json:"n"`
}

type imagesResponse struct {
  Data []struct {
    B64JSON string `json:"b64_json"`
  } `json:"data"`
}

func (c *openAIClient) GenerateImage(ctx context.Context, prompt string, size string) ([]byte, error) {
  if strings.TrimSpace(prompt) == "" {
    return nil, errors.New("prompt required")
  }
  if size == "" {
    size = "1024x1792"
  }
  req := imagesRequest{
    Model:  c.imageModel,
    Prompt: prompt,
    Size:   size,
    N:      1,
  }
  var resp imagesResponse
  if err := c.do(ctx, "POST", "/v1/images/generations", req, &resp); err != nil {
    return nil, err
  }
  if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
    return nil, fmt.Errorf("no image data in response")
  }
  return decodeBase64(resp.Data[0].B64JSON)
}

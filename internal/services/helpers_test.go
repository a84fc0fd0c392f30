package services

import (
  "bytes"
  "context"
  "fmt"
  "io"
  "sync"
  "testing"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("test")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  t.Cleanup(log.Sync)
  return log
}

// ---- provider fakes ----

type fakeScriptProvider struct {
  segments []types.ScriptSegment
  err      error
}

func (f *fakeScriptProvider) GenerateScript(ctx context.Context, settings *types.GenerationSettings) ([]types.ScriptSegment, error) {
  if f.err != nil {
    return nil, f.err
  }
  return f.segments, nil
}

type fakeSpeechProvider struct {
  result *SpeechResult
  err    error
}

func (f *fakeSpeechProvider) SynthesizeSpeech(ctx context.Context, text, voice, language string) (*SpeechResult, error) {
  if f.err != nil {
    return nil, f.err
  }
  return f.result, nil
}

type fakeCaptionProvider struct {
  lines []types.CaptionLine
  err   error
}

func (f *fakeCaptionProvider) AlignCaptions(ctx context.Context, gsURI string, language string) ([]types.CaptionLine, error) {
  if f.err != nil {
    return nil, f.err
  }
  return f.lines, nil
}

func (f *fakeCaptionProvider) Close() error { return nil }

type fakeImageProvider struct {
  url string
  err error
}

func (f *fakeImageProvider) GenerateSegmentImage(ctx context.Context, prompt string, style string) (string, error) {
  if f.err != nil {
    return "", f.err
  }
  return f.url, nil
}

func (f *fakeImageProvider) PlaceholderImage(ctx context.Context, label string, style string) (string, error) {
  if f.err != nil {
    return "", f.err
  }
  return f.url + "-placeholder", nil
}

type fakeAvatarProvider struct {
  name string
  url  string
  err  error
}

func (f *fakeAvatarProvider) Name() string { return f.name }

func (f *fakeAvatarProvider) GenerateAvatarVideo(ctx context.Context, req *AvatarVideoRequest) (string, error) {
  if f.err != nil {
    return "", f.err
  }
  return f.url, nil
}

// fakeBucket stores nothing; it fabricates deterministic URLs and remembers
// what was written.
type fakeBucket struct {
  mu     sync.Mutex
  stored []string
  err    error
}

func (f *fakeBucket) UploadFile(ctx context.Context, key string, file io.Reader) error {
  return f.err
}

func (f *fakeBucket) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
  if f.err != nil {
    return nil, f.err
  }
  return io.NopCloser(bytes.NewReader(nil)), nil
}

func (f *fakeBucket) DeleteFile(ctx context.Context, key string) error { return f.err }

func (f *fakeBucket) StoreAsset(ctx context.Context, category BucketCategory, pathHint string, contentType string, data []byte) (string, string, error) {
  if f.err != nil {
    return "", "", f.err
  }
  f.mu.Lock()
  defer f.mu.Unlock()
  key := fmt.Sprintf("%s/%d", category, len(f.stored))
  f.stored = append(f.stored, key)
  return "https://cdn.example.com/" + key, "gs://test-bucket/" + key, nil
}

func (f *fakeBucket) GetPublicURL(key string) string {
  return "https://cdn.example.com/" + key
}

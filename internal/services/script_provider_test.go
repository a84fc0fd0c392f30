package services

import (
  "context"
  "errors"
  "strings"
  "testing"

  "github.com/yungbote/reelforge-backend/internal/types"
)

type fakeOpenAI struct {
  lastSystem string
  lastUser   string
  response   map[string]any
  err        error
}

func (f *fakeOpenAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
  f.lastSystem = system
  f.lastUser = user
  if f.err != nil {
    return nil, f.err
  }
  return f.response, nil
}

func (f *fakeOpenAI) GenerateImage(ctx context.Context, prompt string, size string) ([]byte, error) {
  return nil, errors.New("not used")
}

func TestGenerateScriptParsesSegments(t *testing.T) {
  ai := &fakeOpenAI{
    response: map[string]any{
      "segments": []any{
        map[string]any{"content_text": "Hook line.", "image_prompt": "a sunrise", "scene_description": "opening"},
        map[string]any{"content_text": "   ", "image_prompt": "skipped", "scene_description": "empty"},
        map[string]any{"content_text": "Closing line.", "image_prompt": "a sunset", "scene_description": "closing"},
      },
    },
  }
  svc := NewScriptProviderService(testLogger(t), ai)

  segments, err := svc.GenerateScript(context.Background(), &types.GenerationSettings{
    Topic:      "morning routines",
    ImageStyle: "cinematic",
    Duration:   "30 Seconds",
    Language:   "en-US",
  })
  if err != nil {
    t.Fatalf("GenerateScript: %v", err)
  }
  if len(segments) != 2 {
    t.Fatalf("empty segments must be filtered: want=2 got=%d", len(segments))
  }
  if segments[0].ContentText != "Hook line." || segments[1].ImagePrompt != "a sunset" {
    t.Fatalf("unexpected segments: %+v", segments)
  }
  if !strings.Contains(ai.lastUser, "Topic: morning routines") {
    t.Fatalf("prompt must carry the topic, got: %s", ai.lastUser)
  }
}

func TestGenerateScriptUGCPromptMentionsPersonaAndProduct(t *testing.T) {
  ai := &fakeOpenAI{
    response: map[string]any{
      "segments": []any{
        map[string]any{"content_text": "Check this out.", "image_prompt": "product shot", "scene_description": "intro"},
      },
    },
  }
  svc := NewScriptProviderService(testLogger(t), ai)

  _, err := svc.GenerateScript(context.Background(), &types.GenerationSettings{
    Category:    types.VideoCategoryUGCAds,
    ImageStyle:  "realistic",
    Duration:    "15 Seconds",
    Language:    "en-US",
    ProductName: "GlowSerum",
    Avatar:      &types.AvatarPersona{ID: "ava", Personality: "upbeat founder"},
  })
  if err != nil {
    t.Fatalf("GenerateScript: %v", err)
  }
  if !strings.Contains(ai.lastUser, "GlowSerum") || !strings.Contains(ai.lastUser, "ava") {
    t.Fatalf("UGC prompt must carry persona and product, got: %s", ai.lastUser)
  }
}

func TestGenerateScriptWrapsVendorFailure(t *testing.T) {
  ai := &fakeOpenAI{err: errors.New("rate limited")}
  svc := NewScriptProviderService(testLogger(t), ai)

  _, err := svc.GenerateScript(context.Background(), &types.GenerationSettings{
    Topic: "anything", ImageStyle: "s", Duration: "d", Language: "l",
  })
  var vErr *VendorError
  if !errors.As(err, &vErr) || vErr.Vendor != "openai" {
    t.Fatalf("expected openai VendorError, got %v", err)
  }

  ai = &fakeOpenAI{response: map[string]any{"segments": []any{}}}
  svc = NewScriptProviderService(testLogger(t), ai)
  if _, err := svc.GenerateScript(context.Background(), &types.GenerationSettings{Topic: "x"}); err == nil {
    t.Fatalf("empty segment list must error")
  }
}

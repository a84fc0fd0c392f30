package services

import (
  "context"
  "fmt"
  "strings"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

// ScriptProviderService turns user generation settings into an ordered list
// of script segments via a single structured LLM call.
type ScriptProviderService interface {
  GenerateScript(ctx context.Context, settings *types.GenerationSettings) ([]types.ScriptSegment, error)
}

type scriptProviderService struct {
  log *logger.Logger
  ai  OpenAIClient
}

func NewScriptProviderService(baseLog *logger.Logger, ai OpenAIClient) ScriptProviderService {
  return &scriptProviderService{
    log: baseLog.With("service", "ScriptProviderService"),
    ai:  ai,
  }
}

func (s *scriptProviderService) GenerateScript(ctx context.Context, settings *types.GenerationSettings) ([]types.ScriptSegment, error) {
  if settings == nil {
    return nil, fmt.Errorf("settings required")
  }

  schema := map[string]any{
    "type": "object",
    "properties": map[string]any{
      "segments": map[string]any{
        "type": "array",
        "items": map[string]any{
          "type": "object",
          "properties": map[string]any{
            "content_text":      map[string]any{"type": "string"},
            "image_prompt":      map[string]any{"type": "string"},
            "scene_description": map[string]any{"type": "string"},
          },
          "required":             []string{"content_text", "image_prompt", "scene_description"},
          "additionalProperties": false,
        },
      },
    },
    "required":             []string{"segments"},
    "additionalProperties": false,
  }

  obj, err := s.ai.GenerateJSON(ctx,
    "You write short-form vertical video scripts. Each segment is one narration beat with a matching visual prompt. Keep narration natural and spoken-word, no stage directions in content_text.",
    s.buildPrompt(settings),
    "video_script",
    schema,
  )
  if err != nil {
    return nil, &VendorError{Vendor: "openai", Message: err.Error(), Err: err}
  }

  segsAny, ok := obj["segments"].([]any)
  if !ok || len(segsAny) == 0 {
    return nil, &VendorError{Vendor: "openai", Message: "script response missing segments"}
  }

  segments := make([]types.ScriptSegment, 0, len(segsAny))
  for _, raw := range segsAny {
    m, ok := raw.(map[string]any)
    if !ok {
      continue
    }
    seg := types.ScriptSegment{
      ContentText:      strings.TrimSpace(fmt.Sprint(m["content_text"])),
      ImagePrompt:      strings.TrimSpace(fmt.Sprint(m["image_prompt"])),
      SceneDescription: strings.TrimSpace(fmt.Sprint(m["scene_description"])),
    }
    if seg.ContentText == "" {
      continue
    }
    segments = append(segments, seg)
  }
  if len(segments) == 0 {
    return nil, &VendorError{Vendor: "openai", Message: "script response had no usable segments"}
  }
  return segments, nil
}

func (s *scriptProviderService) buildPrompt(settings *types.GenerationSettings) string {
  var b strings.Builder

  if settings.Category == types.VideoCategoryUGCAds && settings.Avatar != nil {
    fmt.Fprintf(&b, "Write a UGC-style product advertisement script spoken by a creator persona.\n")
    fmt.Fprintf(&b, "Persona: %s (%s)\n", settings.Avatar.ID, settings.Avatar.Personality)
    if len(settings.Avatar.Gestures) > 0 {
      fmt.Fprintf(&b, "Gestures available: %s\n", strings.Join(settings.Avatar.Gestures, ", "))
    }
    fmt.Fprintf(&b, "Product: %s\n", settings.ProductName)
    if settings.ProductDesc != "" {
      fmt.Fprintf(&b, "Product description: %s\n", settings.ProductDesc)
    }
  } else {
    fmt.Fprintf(&b, "Write a short-form video script.\n")
    fmt.Fprintf(&b, "Topic: %s\n", settings.Topic)
  }

  fmt.Fprintf(&b, "Target duration: %s\n", settings.Duration)
  fmt.Fprintf(&b, "Visual style: %s\n", settings.ImageStyle)
  fmt.Fprintf(&b, "Language: %s\n", settings.Language)
  if settings.VoiceStyle != "" {
    fmt.Fprintf(&b, "Narration tone: %s\n", settings.VoiceStyle)
  }
  b.WriteString("Split the script into 3-6 segments. Each segment needs narration text plus an image generation prompt in the requested visual style.")

  return b.String()
}

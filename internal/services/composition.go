package services

import (
  "encoding/json"
  "fmt"

  "github.com/yungbote/reelforge-backend/internal/types"
)

const (
  TimingEvenSplit   = "even_split"
  TimingCaptionSnap = "caption_snap"
)

type Scene struct {
  ImageURL   string `json:"image_url"`
  StartMs    int64  `json:"start_ms"`
  EndMs      int64  `json:"end_ms"`
  Transition string `json:"transition,omitempty"`
}

// Composition is the scene-list document handed to the rendering engine.
type Composition struct {
  VideoID         string              `json:"video_id"`
  AudioURL        string              `json:"audio_url"`
  Scenes          []Scene             `json:"scenes"`
  Captions        []types.CaptionLine `json:"captions"`
  TotalDurationMs int64               `json:"total_duration_ms"`
}

// CompositionService is pure data transformation: it never touches storage
// or vendors.
type CompositionService interface {
  Build(record *types.VideoRecord, strategy string) (*Composition, error)
}

type compositionService struct{}

func NewCompositionService() CompositionService {
  return &compositionService{}
}

func (cs *compositionService) Build(record *types.VideoRecord, strategy string) (*Composition, error) {
  if record == nil {
    return nil, fmt.Errorf("record required")
  }
  if record.AudioURL == "" {
    return nil, fmt.Errorf("record has no narration audio")
  }

  var captions []types.CaptionLine
  if len(record.Captions) > 0 {
    if err := json.Unmarshal(record.Captions, &captions); err != nil {
      return nil, fmt.Errorf("decode captions: %w", err)
    }
  }
  if len(captions) == 0 {
    return nil, fmt.Errorf("record has no caption track")
  }

  var imageURLs []string
  if len(record.ImageURLs) > 0 {
    if err := json.Unmarshal(record.ImageURLs, &imageURLs); err != nil {
      return nil, fmt.Errorf("decode image urls: %w", err)
    }
  }
  if len(imageURLs) == 0 {
    return nil, fmt.Errorf("record has no images")
  }

  var settings types.GenerationSettings
  if len(record.Settings) > 0 {
    _ = json.Unmarshal(record.Settings, &settings)
  }

  total := captions[len(captions)-1].EndMs
  if total <= 0 {
    return nil, fmt.Errorf("caption track has zero duration")
  }

  if strategy == "" {
    strategy = settings.TimingStrategy
  }
  if strategy == "" {
    strategy = TimingEvenSplit
  }

  var boundaries []int64
  switch strategy {
  case TimingEvenSplit:
    boundaries = evenBoundaries(total, len(imageURLs))
  case TimingCaptionSnap:
    boundaries = snapBoundaries(evenBoundaries(total, len(imageURLs)), captions)
  default:
    return nil, fmt.Errorf("unknown timing strategy %q", strategy)
  }

  scenes := make([]Scene, len(imageURLs))
  for i, url := range imageURLs {
    scenes[i] = Scene{
      ImageURL:   url,
      StartMs:    boundaries[i],
      EndMs:      boundaries[i+1],
      Transition: settings.TransitionStyle,
    }
  }

  return &Composition{
    VideoID:         record.ID.String(),
    AudioURL:        record.AudioURL,
    Scenes:          scenes,
    Captions:        captions,
    TotalDurationMs: total,
  }, nil
}

// evenBoundaries returns n+1 monotone boundaries dividing [0, total] evenly;
// the last scene absorbs the rounding remainder.
func evenBoundaries(total int64, n int) []int64 {
  boundaries := make([]int64, n+1)
  per := total / int64(n)
  for i := 0; i < n; i++ {
    boundaries[i] = int64(i) * per
  }
  boundaries[n] = total
  return boundaries
}

// snapBoundaries moves each interior boundary to the nearest caption-line
// end, keeping the sequence strictly within [0, total] and non-decreasing.
func snapBoundaries(boundaries []int64, captions []types.CaptionLine) []int64 {
  out := make([]int64, len(boundaries))
  copy(out, boundaries)

  for i := 1; i < len(out)-1; i++ {
    target := out[i]
    best := target
    bestDist := int64(-1)
    for _, c := range captions {
      d := c.EndMs - target
      if d < 0 {
        d = -d
      }
      if bestDist < 0 || d < bestDist {
        bestDist = d
        best = c.EndMs
      }
    }
    out[i] = best
    if out[i] < out[i-1] {
      out[i] = out[i-1]
    }
  }
  // never let a snapped interior boundary pass the end
  last := out[len(out)-1]
  for i := 1; i < len(out)-1; i++ {
    if out[i] > last {
      out[i] = last
    }
  }
  return out
}

package services

import (
  "fmt"
  "os"
  "strings"

  "gopkg.in/yaml.v3"

  "github.com/yungbote/reelforge-backend/internal/types"
)

// PresetCatalog is the file-loaded catalog of voices, avatar personas and
// content-type labels the generation surface offers.
type PresetCatalog struct {
  Voices       []VoicePreset   `yaml:"voices"`
  Personas     []PersonaPreset `yaml:"personas"`
  ContentTypes []string        `yaml:"content_types"`
  Durations    []string        `yaml:"durations"`
}

type VoicePreset struct {
  Name     string `yaml:"name"`
  Style    string `yaml:"style"`
  Language string `yaml:"language"`
}

type PersonaPreset struct {
  ID          string   `yaml:"id"`
  Personality string   `yaml:"personality"`
  ImageURL    string   `yaml:"image_url"`
  Gestures    []string `yaml:"gestures"`
}

func LoadPresetCatalog(path string) (*PresetCatalog, error) {
  data, err := os.ReadFile(path)
  if err != nil {
    return nil, fmt.Errorf("read presets file: %w", err)
  }
  return ParsePresetCatalog(data)
}

func ParsePresetCatalog(data []byte) (*PresetCatalog, error) {
  var cat PresetCatalog
  if err := yaml.Unmarshal(data, &cat); err != nil {
    return nil, fmt.Errorf("parse presets yaml: %w", err)
  }
  if len(cat.Durations) == 0 {
    cat.Durations = []string{"15 Seconds", "30 Seconds", "60 Seconds"}
  }
  return &cat, nil
}

// ResolveVoice picks a concrete voice name: an explicit name wins, then the
// first catalog voice matching style+language, then style, then a fixed
// default.
func (c *PresetCatalog) ResolveVoice(name, style, language string) string {
  if strings.TrimSpace(name) != "" {
    return name
  }
  for _, v := range c.Voices {
    if v.Style == style && (language == "" || v.Language == language) {
      return v.Name
    }
  }
  for _, v := range c.Voices {
    if v.Style == style {
      return v.Name
    }
  }
  if len(c.Voices) > 0 {
    return c.Voices[0].Name
  }
  return "alloy"
}

func (c *PresetCatalog) PersonaByID(id string) *types.AvatarPersona {
  for _, p := range c.Personas {
    if p.ID == id {
      return &types.AvatarPersona{
        ID:          p.ID,
        Personality: p.Personality,
        ImageURL:    p.ImageURL,
        Gestures:    p.Gestures,
      }
    }
  }
  return nil
}

func (c *PresetCatalog) ValidDuration(d string) bool {
  for _, v := range c.Durations {
    if strings.EqualFold(v, d) {
      return true
    }
  }
  return false
}

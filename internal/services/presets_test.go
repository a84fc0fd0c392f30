package services

import (
  "testing"
)

const presetYAML = `
voices:
  - name: nova
    style: energetic
    language: en-US
  - name: onyx
    style: calm
    language: en-US
  - name: ember
    style: calm
    language: de-DE
personas:
  - id: ava
    personality: upbeat founder
    image_url: https://cdn.example.com/ava.png
    gestures: [wave, point]
content_types:
  - Explainer
  - Product Ad
`

func TestParsePresetCatalog(t *testing.T) {
  cat, err := ParsePresetCatalog([]byte(presetYAML))
  if err != nil {
    t.Fatalf("ParsePresetCatalog: %v", err)
  }
  if len(cat.Voices) != 3 || len(cat.Personas) != 1 {
    t.Fatalf("unexpected catalog shape: %d voices, %d personas", len(cat.Voices), len(cat.Personas))
  }
  if len(cat.Durations) != 3 {
    t.Fatalf("durations should default when absent, got %v", cat.Durations)
  }
  if !cat.ValidDuration("30 seconds") {
    t.Fatalf("ValidDuration should be case-insensitive")
  }
  if cat.ValidDuration("45 Seconds") {
    t.Fatalf("ValidDuration accepted an unknown duration")
  }
}

func TestResolveVoicePrecedence(t *testing.T) {
  cat, err := ParsePresetCatalog([]byte(presetYAML))
  if err != nil {
    t.Fatalf("ParsePresetCatalog: %v", err)
  }

  if got := cat.ResolveVoice("shimmer", "calm", "en-US"); got != "shimmer" {
    t.Fatalf("explicit name must win, got %q", got)
  }
  if got := cat.ResolveVoice("", "calm", "de-DE"); got != "ember" {
    t.Fatalf("style+language match: want ember got %q", got)
  }
  if got := cat.ResolveVoice("", "calm", "fr-FR"); got != "onyx" {
    t.Fatalf("style-only fallback: want onyx got %q", got)
  }
  if got := cat.ResolveVoice("", "unknown", ""); got != "nova" {
    t.Fatalf("first-voice fallback: want nova got %q", got)
  }

  empty := &PresetCatalog{}
  if got := empty.ResolveVoice("", "", ""); got != "alloy" {
    t.Fatalf("empty catalog fallback: want alloy got %q", got)
  }
}

func TestPersonaByID(t *testing.T) {
  cat, err := ParsePresetCatalog([]byte(presetYAML))
  if err != nil {
    t.Fatalf("ParsePresetCatalog: %v", err)
  }
  p := cat.PersonaByID("ava")
  if p == nil || p.Personality != "upbeat founder" || len(p.Gestures) != 2 {
    t.Fatalf("PersonaByID: got %+v", p)
  }
  if cat.PersonaByID("missing") != nil {
    t.Fatalf("unknown persona id must return nil")
  }
}

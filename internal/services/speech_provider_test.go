package services

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "net/http"
  "net/http/httptest"
  "testing"
)

func newTestSpeechProvider(t *testing.T, handler http.HandlerFunc) SpeechProviderService {
  t.Helper()
  srv := httptest.NewServer(handler)
  t.Cleanup(srv.Close)

  t.Setenv("TTS_BASE_URL", srv.URL)
  t.Setenv("TTS_API_KEY", "test-key")

  svc, err := NewSpeechProviderService(testLogger(t))
  if err != nil {
    t.Fatalf("NewSpeechProviderService: %v", err)
  }
  return svc
}

func TestSynthesizeSpeechDirectAudioPayload(t *testing.T) {
  audio := []byte{0xFF, 0xFB, 0x90, 0x00}
  svc := newTestSpeechProvider(t, func(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/speech" {
      t.Errorf("unexpected path %s", r.URL.Path)
    }
    if r.Header.Get("Authorization") != "Bearer test-key" {
      t.Errorf("missing bearer auth")
    }
    var body map[string]string
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
      t.Errorf("decode request: %v", err)
    }
    if body["voice"] != "nova" || body["language"] != "en-US" {
      t.Errorf("unexpected request body: %v", body)
    }
    w.Header().Set("Content-Type", "audio/mpeg")
    w.Write(audio)
  })

  res, err := svc.SynthesizeSpeech(context.Background(), "hello world", "nova", "en-US")
  if err != nil {
    t.Fatalf("SynthesizeSpeech: %v", err)
  }
  if !bytes.Equal(res.AudioData, audio) {
    t.Fatalf("audio bytes not passed through")
  }
  if res.AudioURL != "" {
    t.Fatalf("direct payload should not carry a URL")
  }
}

func TestSynthesizeSpeechHostedURL(t *testing.T) {
  svc := newTestSpeechProvider(t, func(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]string{"audio_url": "https://vendor.example.com/a.mp3"})
  })

  res, err := svc.SynthesizeSpeech(context.Background(), "hello", "nova", "en-US")
  if err != nil {
    t.Fatalf("SynthesizeSpeech: %v", err)
  }
  if res.AudioURL != "https://vendor.example.com/a.mp3" {
    t.Fatalf("audio url: got %q", res.AudioURL)
  }
  if res.AudioData != nil {
    t.Fatalf("hosted URL response should not carry bytes")
  }
}

func TestSynthesizeSpeechVendorFailure(t *testing.T) {
  svc := newTestSpeechProvider(t, func(w http.ResponseWriter, r *http.Request) {
    http.Error(w, "overloaded", http.StatusServiceUnavailable)
  })

  _, err := svc.SynthesizeSpeech(context.Background(), "hello", "nova", "en-US")
  if err == nil {
    t.Fatalf("expected vendor error")
  }
  var vErr *VendorError
  if !errors.As(err, &vErr) {
    t.Fatalf("expected *VendorError, got %T", err)
  }
  if vErr.Vendor != "tts" || vErr.Code != "http_503" {
    t.Fatalf("vendor error fields: %+v", vErr)
  }
}

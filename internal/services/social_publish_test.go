package services

import (
  "errors"
  "strings"
  "testing"
)

func newTestSocialService(t *testing.T) *socialPublishService {
  t.Helper()
  t.Setenv("SOCIAL_STATE_SECRET", "state-secret")
  t.Setenv("INSTAGRAM_CLIENT_ID", "ig-id")
  t.Setenv("INSTAGRAM_CLIENT_SECRET", "ig-secret")
  t.Setenv("YOUTUBE_CLIENT_ID", "yt-id")
  t.Setenv("YOUTUBE_CLIENT_SECRET", "yt-secret")

  svc, err := NewSocialPublishService(nil, testLogger(t), nil, nil)
  if err != nil {
    t.Fatalf("NewSocialPublishService: %v", err)
  }
  return svc.(*socialPublishService)
}

func TestOAuthStateRoundTrip(t *testing.T) {
  svc := newTestSocialService(t)

  state, err := svc.buildState("creator@example.com")
  if err != nil {
    t.Fatalf("buildState: %v", err)
  }
  email, err := svc.verifyState(state)
  if err != nil {
    t.Fatalf("verifyState: %v", err)
  }
  if email != "creator@example.com" {
    t.Fatalf("bound email: got %q", email)
  }
}

func TestOAuthStateRejectsTampering(t *testing.T) {
  svc := newTestSocialService(t)

  state, err := svc.buildState("creator@example.com")
  if err != nil {
    t.Fatalf("buildState: %v", err)
  }

  tampered := strings.Replace(state, "creator@example.com", "attacker@example.com", 1)
  if _, err := svc.verifyState(tampered); !errors.Is(err, ErrAuth) {
    t.Fatalf("tampered state must fail auth, got %v", err)
  }

  if _, err := svc.verifyState("not-a-state"); !errors.Is(err, ErrAuth) {
    t.Fatalf("malformed state must fail auth, got %v", err)
  }
}

func TestOAuthStateSecretBindsSignature(t *testing.T) {
  svc := newTestSocialService(t)
  state, err := svc.buildState("creator@example.com")
  if err != nil {
    t.Fatalf("buildState: %v", err)
  }

  other := *svc
  other.stateSecret = []byte("different-secret")
  if _, err := other.verifyState(state); !errors.Is(err, ErrAuth) {
    t.Fatalf("state signed under another secret must fail, got %v", err)
  }
}

func TestBuildAuthURLCarriesState(t *testing.T) {
  svc := newTestSocialService(t)

  url, err := svc.BuildAuthURL("creator@example.com", "youtube")
  if err != nil {
    t.Fatalf("BuildAuthURL: %v", err)
  }
  if !strings.Contains(url, "accounts.google.com") || !strings.Contains(url, "state=") {
    t.Fatalf("auth url missing endpoint or state: %s", url)
  }

  if _, err := svc.BuildAuthURL("creator@example.com", "tiktok"); !errors.Is(err, ErrValidation) {
    t.Fatalf("unsupported platform must be a validation error, got %v", err)
  }
}

func TestBuildCaption(t *testing.T) {
  got := buildCaption("My Reel", "  a quick demo  ", []string{"golang", "#shorts", " ", ""})
  want := "My Reel\n\na quick demo\n\n#golang #shorts"
  if got != want {
    t.Fatalf("caption:\nwant %q\ngot  %q", want, got)
  }

  if got := buildCaption("", "", nil); got != "" {
    t.Fatalf("empty inputs must produce an empty caption, got %q", got)
  }
}

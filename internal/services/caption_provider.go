package services

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  speech "cloud.google.com/go/speech/apiv1"
  "cloud.google.com/go/speech/apiv1/speechpb"
  "google.golang.org/api/option"
  "google.golang.org/grpc/status"
  "google.golang.org/protobuf/types/known/durationpb"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

// CaptionProviderService aligns stored narration audio into a caption track
// using word time offsets from the recognizer.
type CaptionProviderService interface {
  AlignCaptions(ctx context.Context, gsURI string, language string) ([]types.CaptionLine, error)
  Close() error
}

type captionProviderService struct {
  log    *logger.Logger
  client *speech.Client
}

func NewCaptionProviderService(log *logger.Logger) (CaptionProviderService, error) {
  if log == nil {
    return nil, fmt.Errorf("logger required")
  }
  slog := log.With("service", "CaptionProviderService")

  creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
  if creds == "" {
    creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
  }

  ctx := context.Background()

  var c *speech.Client
  var err error
  if creds != "" {
    c, err = speech.NewClient(ctx, option.WithCredentialsFile(creds))
  } else {
    c, err = speech.NewClient(ctx)
  }
  if err != nil {
    return nil, fmt.Errorf("speech client: %w", err)
  }

  return &captionProviderService{log: slog, client: c}, nil
}

func (s *captionProviderService) Close() error {
  if s == nil || s.client == nil {
    return nil
  }
  return s.client.Close()
}

type alignedWord struct {
  Word    string
  StartMs int64
  EndMs   int64
}

func (s *captionProviderService) AlignCaptions(ctx context.Context, gsURI string, language string) ([]types.CaptionLine, error) {
  ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
  defer cancel()

  if !strings.HasPrefix(gsURI, "gs://") {
    return nil, fmt.Errorf("gsURI must be gs://... got %q", gsURI)
  }
  if language == "" {
    language = "en-US"
  }

  req := &speechpb.LongRunningRecognizeRequest{
    Config: &speechpb.RecognitionConfig{
      LanguageCode:               language,
      EnableAutomaticPunctuation: true,
      EnableWordTimeOffsets:      true,
      Encoding:                   speechpb.RecognitionConfig_MP3,
      SampleRateHertz:            44100,
    },
    Audio: &speechpb.RecognitionAudio{
      AudioSource: &speechpb.RecognitionAudio_Uri{Uri: gsURI},
    },
  }

  op, err := s.client.LongRunningRecognize(ctx, req)
  if err != nil {
    return nil, s.vendorErr(err)
  }
  resp, err := op.Wait(ctx)
  if err != nil {
    return nil, s.vendorErr(err)
  }

  words := collectWords(resp)
  if len(words) == 0 {
    return nil, &VendorError{Vendor: "gcp_speech", Message: "recognizer returned no word offsets"}
  }
  return groupWordsIntoLines(words), nil
}

func (s *captionProviderService) vendorErr(err error) error {
  st, ok := status.FromError(err)
  if ok {
    return &VendorError{Vendor: "gcp_speech", Code: st.Code().String(), Message: st.Message(), Err: err}
  }
  return &VendorError{Vendor: "gcp_speech", Message: err.Error(), Err: err}
}

func collectWords(resp *speechpb.LongRunningRecognizeResponse) []alignedWord {
  if resp == nil {
    return nil
  }
  words := []alignedWord{}
  for _, r := range resp.Results {
    if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
      continue
    }
    for _, w := range r.Alternatives[0].Words {
      if w == nil || strings.TrimSpace(w.Word) == "" {
        continue
      }
      words = append(words, alignedWord{
        Word:    w.Word,
        StartMs: durToMs(w.StartTime),
        EndMs:   durToMs(w.EndTime),
      })
    }
  }
  return words
}

// groupWordsIntoLines buckets words into short caption lines: at most
// maxWordsPerLine words and maxLineMs of audio per line. End times are
// non-decreasing across the returned track.
func groupWordsIntoLines(words []alignedWord) []types.CaptionLine {
  const maxWordsPerLine = 4
  const maxLineMs = 3500

  lines := []types.CaptionLine{}
  var buf []string
  var lineStart, lineEnd int64

  flush := func() {
    if len(buf) == 0 {
      return
    }
    if lineEnd < lineStart {
      lineEnd = lineStart
    }
    lines = append(lines, types.CaptionLine{
      Text:    strings.Join(buf, " "),
      StartMs: lineStart,
      EndMs:   lineEnd,
    })
    buf = nil
  }

  for _, w := range words {
    if len(buf) == 0 {
      lineStart = w.StartMs
      lineEnd = w.EndMs
    }
    if len(buf) >= maxWordsPerLine || (w.EndMs-lineStart) > maxLineMs {
      flush()
      lineStart = w.StartMs
      lineEnd = w.EndMs
    }
    buf = append(buf, w.Word)
    if w.EndMs > lineEnd {
      lineEnd = w.EndMs
    }
  }
  flush()

  // clamp any decreasing end produced by zero-length vendor offsets
  for i := 1; i < len(lines); i++ {
    if lines[i].EndMs < lines[i-1].EndMs {
      lines[i].EndMs = lines[i-1].EndMs
    }
    if lines[i].StartMs < lines[i-1].StartMs {
      lines[i].StartMs = lines[i-1].StartMs
    }
  }
  return lines
}

func durToMs(d *durationpb.Duration) int64 {
  if d == nil {
    return 0
  }
  return d.Seconds*1000 + int64(d.Nanos)/1e6
}

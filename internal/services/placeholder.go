package services

import (
  "bytes"
  "fmt"
  "image/color"
  "os"
  "strings"

  "github.com/fogleman/gg"
  "github.com/golang/freetype/truetype"
  "golang.org/x/image/font"
)

// PlaceholderRenderer draws the stock fallback frame used when the image
// vendor fails for a segment: a flat dark card with the scene label.
type PlaceholderRenderer struct {
  fontFace font.Face
}

func NewPlaceholderRenderer() (*PlaceholderRenderer, error) {
  r := &PlaceholderRenderer{}

  fontPath := strings.TrimSpace(os.Getenv("PLACEHOLDER_FONT"))
  if fontPath == "" {
    fontPath = strings.TrimSpace(os.Getenv("AVATAR_FONT"))
  }
  if fontPath != "" {
    face, err := loadFontFace(fontPath, 48)
    if err != nil {
      return nil, fmt.Errorf("could not load placeholder font: %w", err)
    }
    r.fontFace = face
  }
  return r, nil
}

func (r *PlaceholderRenderer) Render(label string, style string) ([]byte, error) {
  const w, h = 1080, 1920

  dc := gg.NewContext(w, h)

  dc.SetColor(color.NRGBA{R: 0x1A, G: 0x1D, B: 0x29, A: 0xFF})
  dc.DrawRectangle(0, 0, w, h)
  dc.Fill()

  dc.SetColor(color.NRGBA{R: 0x2E, G: 0x33, B: 0x47, A: 0xFF})
  dc.DrawRoundedRectangle(80, float64(h)/2-300, w-160, 600, 24)
  dc.Fill()

  if r.fontFace != nil {
    dc.SetFontFace(r.fontFace)
  }
  dc.SetColor(color.White)
  if label != "" {
    dc.DrawStringWrapped(label, float64(w)/2, float64(h)/2-40, 0.5, 0.5, w-280, 1.4, gg.AlignCenter)
  }
  if style != "" {
    dc.SetColor(color.NRGBA{R: 0x9A, G: 0xA3, B: 0xC0, A: 0xFF})
    dc.DrawStringAnchored(style, float64(w)/2, float64(h)/2+200, 0.5, 0.5)
  }

  var buf bytes.Buffer
  if err := dc.EncodePNG(&buf); err != nil {
    return nil, fmt.Errorf("failed to encode PNG: %w", err)
  }
  return buf.Bytes(), nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
  fontBytes, err := os.ReadFile(fontPath)
  if err != nil {
    return nil, fmt.Errorf("failed to read font file: %w", err)
  }
  parsedFont, err := truetype.Parse(fontBytes)
  if err != nil {
    return nil, fmt.Errorf("failed to parse TTF: %w", err)
  }
  face := truetype.NewFace(parsedFont, &truetype.Options{
    Size:    size,
    DPI:     72,
    Hinting: font.HintingNone,
  })
  return face, nil
}

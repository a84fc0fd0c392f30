package services

import (
  "strings"
  "testing"
)

func wordsAt(step int64, texts ...string) []alignedWord {
  words := make([]alignedWord, len(texts))
  for i, txt := range texts {
    words[i] = alignedWord{
      Word:    txt,
      StartMs: int64(i) * step,
      EndMs:   int64(i+1) * step,
    }
  }
  return words
}

func TestGroupWordsIntoLinesWordCap(t *testing.T) {
  words := wordsAt(100, "one", "two", "three", "four", "five", "six", "seven", "eight", "nine")
  lines := groupWordsIntoLines(words)

  if len(lines) != 3 {
    t.Fatalf("expected 3 lines for 9 words, got %d", len(lines))
  }
  for i, line := range lines {
    n := len(strings.Fields(line.Text))
    if n > 4 {
      t.Fatalf("line %d has %d words, cap is 4: %q", i, n, line.Text)
    }
  }
  if lines[0].Text != "one two three four" {
    t.Fatalf("first line: got %q", lines[0].Text)
  }
  if lines[2].Text != "nine" {
    t.Fatalf("last line: got %q", lines[2].Text)
  }
}

func TestGroupWordsIntoLinesDurationCap(t *testing.T) {
  // 2s per word: two words exceed the 3.5s line budget, so every line
  // breaks on duration before the word cap matters.
  words := wordsAt(2000, "a", "b", "c", "d")
  lines := groupWordsIntoLines(words)

  if len(lines) != 4 {
    t.Fatalf("expected 4 single-word lines, got %d", len(lines))
  }
  for i, line := range lines {
    if line.EndMs-line.StartMs > 3500 {
      t.Fatalf("line %d spans %dms, cap is 3500", i, line.EndMs-line.StartMs)
    }
  }
}

func TestGroupWordsIntoLinesMonotonicAndCovering(t *testing.T) {
  words := []alignedWord{
    {Word: "start", StartMs: 0, EndMs: 400},
    {Word: "mid", StartMs: 400, EndMs: 400}, // zero-length vendor offset
    {Word: "later", StartMs: 900, EndMs: 1400},
    {Word: "end", StartMs: 1400, EndMs: 1400},
    {Word: "tail", StartMs: 3600, EndMs: 4200},
  }
  lines := groupWordsIntoLines(words)

  if len(lines) == 0 {
    t.Fatalf("expected at least one line")
  }
  if lines[0].StartMs != 0 {
    t.Fatalf("track must start at the first word offset, got %d", lines[0].StartMs)
  }
  if lines[len(lines)-1].EndMs != 4200 {
    t.Fatalf("track must end at the last word offset, got %d", lines[len(lines)-1].EndMs)
  }
  for i := 1; i < len(lines); i++ {
    if lines[i].EndMs < lines[i-1].EndMs {
      t.Fatalf("line %d end %d decreases below previous %d", i, lines[i].EndMs, lines[i-1].EndMs)
    }
    if lines[i].StartMs < lines[i-1].StartMs {
      t.Fatalf("line %d start %d decreases below previous %d", i, lines[i].StartMs, lines[i-1].StartMs)
    }
  }
}

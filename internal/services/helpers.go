package services

import (
  "encoding/base64"
  "encoding/json"
  "fmt"
)

func mustJSON(v any) []byte {
  b, err := json.Marshal(v)
  if err != nil {
    return []byte(`{}`)
  }
  return b
}

func decodeBase64(s string) ([]byte, error) {
  b, err := base64.StdEncoding.DecodeString(s)
  if err != nil {
    return nil, fmt.Errorf("decode base64: %w", err)
  }
  return b, nil
}

func truncate(s string, n int) string {
  if len(s) <= n {
    return s
  }
  return s[:n]
}

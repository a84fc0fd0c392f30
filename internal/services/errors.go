package services

import (
  "errors"
  "fmt"
)

// Error codes surfaced in the HTTP envelope and recorded on failed runs.
const (
  CodeScriptGenerationFailed = "SCRIPT_GENERATION_FAILED"
  CodeSpeechSynthesisFailed  = "SPEECH_SYNTHESIS_FAILED"
  CodeCaptionAlignmentFailed = "CAPTION_ALIGNMENT_FAILED"
  CodeInsufficientBalance    = "INSUFFICIENT_BALANCE"
  CodePersistenceFailed      = "PERSISTENCE_FAILED"
  CodeStorageFailed          = "STORAGE_FAILED"
  CodeValidationError        = "VALIDATION_ERROR"
  CodeAuthError              = "AUTH_ERROR"
)

var (
  ErrScriptGeneration    = errors.New("script generation failed")
  ErrSpeechSynthesis     = errors.New("speech synthesis failed")
  ErrCaptionAlignment    = errors.New("caption alignment failed")
  ErrInsufficientBalance = errors.New("insufficient balance")
  ErrPersistence         = errors.New("persistence failed")
  ErrStorage             = errors.New("storage failed")
  ErrValidation          = errors.New("validation error")
  ErrAuth                = errors.New("auth error")
)

// VendorError preserves the vendor-reported code and message for a single
// failed capability call. Adapters return it without retrying; fallback
// decisions belong to the caller.
type VendorError struct {
  Vendor  string
  Code    string
  Message string
  Err     error
}

func (e *VendorError) Error() string {
  if e.Code != "" {
    return fmt.Sprintf("%s vendor error [%s]: %s", e.Vendor, e.Code, e.Message)
  }
  return fmt.Sprintf("%s vendor error: %s", e.Vendor, e.Message)
}

func (e *VendorError) Unwrap() error { return e.Err }

// ErrorCode maps a sequencer error to its HTTP envelope code.
func ErrorCode(err error) string {
  switch {
  case errors.Is(err, ErrScriptGeneration):
    return CodeScriptGenerationFailed
  case errors.Is(err, ErrSpeechSynthesis):
    return CodeSpeechSynthesisFailed
  case errors.Is(err, ErrCaptionAlignment):
    return CodeCaptionAlignmentFailed
  case errors.Is(err, ErrInsufficientBalance):
    return CodeInsufficientBalance
  case errors.Is(err, ErrPersistence):
    return CodePersistenceFailed
  case errors.Is(err, ErrStorage):
    return CodeStorageFailed
  case errors.Is(err, ErrValidation):
    return CodeValidationError
  case errors.Is(err, ErrAuth):
    return CodeAuthError
  }
  return ""
}

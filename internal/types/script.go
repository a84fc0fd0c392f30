package types

// ScriptSegment is one narration+visual unit of a generated script.
type ScriptSegment struct {
  ContentText      string `json:"content_text"`
  ImagePrompt      string `json:"image_prompt,omitempty"`
  SceneDescription string `json:"scene_description,omitempty"`
}

// CaptionLine is one time-aligned caption entry. Times are milliseconds from
// the start of the narration audio.
type CaptionLine struct {
  Text    string `json:"text"`
  StartMs int64  `json:"start_ms"`
  EndMs   int64  `json:"end_ms"`
}

// AvatarPersona describes the talking-avatar persona selected for a UGC video.
type AvatarPersona struct {
  ID          string   `json:"id"`
  Personality string   `json:"personality,omitempty"`
  ImageURL    string   `json:"image_url,omitempty"`
  Gestures    []string `json:"gestures,omitempty"`
}

// GenerationSettings is the full configuration snapshot for one generation
// attempt. It is persisted on the run and on the finished record so a video
// can be regenerated with the same inputs.
type GenerationSettings struct {
  Topic           string         `json:"topic"`
  ImageStyle      string         `json:"image_style"`
  Duration        string         `json:"duration"`
  Language        string         `json:"language"`
  VoiceStyle      string         `json:"voice_style,omitempty"`
  VoiceName       string         `json:"voice_name,omitempty"`
  TransitionStyle string         `json:"transition_style,omitempty"`
  Category        string         `json:"category,omitempty"`
  TimingStrategy  string         `json:"timing_strategy,omitempty"`
  Avatar          *AvatarPersona `json:"avatar,omitempty"`
  ProductName     string         `json:"product_name,omitempty"`
  ProductDesc     string         `json:"product_description,omitempty"`
  ProductImageURL string         `json:"product_image_url,omitempty"`
}

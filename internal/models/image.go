package models

import "time"

// ImageAsset carries raw uploaded or backend-processed image bytes through
// the pipeline. Immutable once validated, except Resolution which the
// validator fills in as a side effect of decoding.
type ImageAsset struct {
	FileName   string    `json:"filename"`
	Data       []byte    `json:"-"`
	Size       int64     `json:"size"`
	Format     string    `json:"format"`
	Resolution string    `json:"resolution,omitempty"`
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
	Processed  bool      `json:"processed"`
}

// AnalysisResult is the canonical characteristics shape extracted by the
// remote inference backend. Richer backend payloads land in Metadata and
// never become required fields.
type AnalysisResult struct {
	Color          string         `json:"color"`
	HairLength     string         `json:"hair_length"`
	PredictedClass string         `json:"predicted_class"`
	Confidence     float64        `json:"confidence"`
	AnalyzedAt     time.Time      `json:"analyzed_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

package neural

import (
	"catgroom/internal/models"
)

// Request is one analyze-and-process call: a single validated image plus a
// processing-type tag.
type Request struct {
	Image          models.ImageAsset
	ProcessingType string
}

// Response is the parsed success payload from the inference backend.
type Response struct {
	Analysis         models.AnalysisResult
	ProcessedImage   *models.ImageAsset
	ProcessingTimeMS int64
	Metadata         map[string]any
}

// wire shapes

type requestMetadata struct {
	ProcessedAt   string        `json:"processed_at"`
	ImageMetadata imageMetadata `json:"image_metadata"`
}

type imageMetadata struct {
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	Size       int64  `json:"size"`
	Resolution string `json:"resolution"`
}

type successResponse struct {
	AnalysisResult     map[string]any      `json:"analysis_result"`
	ProcessedImage     *processedImageWire `json:"processed_image"`
	ProcessingTimeMS   int64               `json:"processing_time_ms"`
	ProcessingMetadata map[string]any      `json:"processing_metadata"`
}

type processedImageWire struct {
	Filename   string `json:"filename"`
	Data       string `json:"data"`
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
}

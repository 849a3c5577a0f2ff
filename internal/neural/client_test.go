package neural

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"catgroom/internal/models"
	"catgroom/internal/procerr"
)

func testClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Options{BaseURL: url, Timeout: timeout}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func testRequest() Request {
	return Request{
		Image: models.ImageAsset{
			FileName:   "cat.jpg",
			Data:       []byte("fake image bytes"),
			Size:       16,
			Format:     "JPEG",
			Resolution: "1920x1080",
		},
		ProcessingType: "analysis_and_enhancement",
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		wantID string
	}{
		{400, "NEURAL_API_BAD_REQUEST"},
		{401, "NEURAL_API_UNAUTHORIZED"},
		{403, "NEURAL_API_FORBIDDEN"},
		{404, "NEURAL_API_NOT_FOUND"},
		{429, "NEURAL_API_RATE_LIMIT"},
		{500, "NEURAL_API_SERVER_ERROR"},
		{503, "NEURAL_API_UNAVAILABLE"},
		{418, "NEURAL_API_UNKNOWN"},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte("backend said no"))
		}))

		_, err := testClient(t, srv.URL, time.Second).AnalyzeAndProcess(context.Background(), testRequest())
		srv.Close()

		var perr *procerr.Error
		if !errors.As(err, &perr) {
			t.Fatalf("status %d: expected *procerr.Error, got %v", tt.status, err)
		}
		if perr.ID != tt.wantID {
			t.Errorf("status %d: error id = %s, want %s", tt.status, perr.ID, tt.wantID)
		}
		if perr.Type != procerr.TypeNeuralAPI {
			t.Errorf("status %d: error type = %s, want %s", tt.status, perr.Type, procerr.TypeNeuralAPI)
		}
		if perr.Details != "backend said no" {
			t.Errorf("status %d: details = %q", tt.status, perr.Details)
		}
	}
}

func TestErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, time.Second).AnalyzeAndProcess(context.Background(), testRequest())
	var perr *procerr.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *procerr.Error, got %v", err)
	}
	if len(perr.Details) != 500 {
		t.Errorf("details length = %d, want 500", len(perr.Details))
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, 50*time.Millisecond).AnalyzeAndProcess(context.Background(), testRequest())
	var perr *procerr.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *procerr.Error, got %v", err)
	}
	if perr.ID != "NEURAL_API_TIMEOUT" {
		t.Errorf("error id = %s, want NEURAL_API_TIMEOUT", perr.ID)
	}
}

func TestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens here anymore

	_, err := testClient(t, srv.URL, time.Second).AnalyzeAndProcess(context.Background(), testRequest())
	var perr *procerr.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *procerr.Error, got %v", err)
	}
	if perr.ID != "NEURAL_API_CONNECTION" {
		t.Errorf("error id = %s, want NEURAL_API_CONNECTION", perr.ID)
	}
}

func TestSuccessResponse(t *testing.T) {
	processedBytes := []byte("processed image bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("image field: %v", err)
		} else {
			file.Close()
			if header.Filename != "cat.jpg" {
				t.Errorf("filename = %q", header.Filename)
			}
			if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
				t.Errorf("content type = %q, want image/jpeg", ct)
			}
		}
		var meta struct {
			ProcessedAt   string `json:"processed_at"`
			ImageMetadata struct {
				Filename   string `json:"filename"`
				Format     string `json:"format"`
				Size       int64  `json:"size"`
				Resolution string `json:"resolution"`
			} `json:"image_metadata"`
		}
		if err := json.Unmarshal([]byte(r.FormValue("metadata")), &meta); err != nil {
			t.Errorf("metadata field: %v", err)
		}
		if meta.ProcessedAt != "analysis_and_enhancement" {
			t.Errorf("processed_at = %q", meta.ProcessedAt)
		}
		if meta.ImageMetadata.Resolution != "1920x1080" {
			t.Errorf("resolution = %q", meta.ImageMetadata.Resolution)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"analysis_result": map[string]any{
				"color":              "black",
				"hair_length":        "long",
				"predicted_class":    "persian",
				"confidence":         0.95,
				"analysis_timestamp": "2025-03-01T12:00:00Z",
				"body_type":          "stocky",
			},
			"processed_image": map[string]any{
				"filename":   "cat_enhanced.jpg",
				"data":       base64.StdEncoding.EncodeToString(processedBytes),
				"format":     "JPEG",
				"resolution": "1920x1080",
			},
			"processing_time_ms":  42,
			"processing_metadata": map[string]any{"model": "v2"},
		})
	}))
	defer srv.Close()

	resp, err := testClient(t, srv.URL, time.Second).AnalyzeAndProcess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Analysis.Color != "black" || resp.Analysis.HairLength != "long" {
		t.Errorf("analysis = %+v", resp.Analysis)
	}
	if resp.Analysis.PredictedClass != "persian" {
		t.Errorf("predicted class = %q", resp.Analysis.PredictedClass)
	}
	if resp.Analysis.Confidence != 0.95 {
		t.Errorf("confidence = %v", resp.Analysis.Confidence)
	}
	want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if !resp.Analysis.AnalyzedAt.Equal(want) {
		t.Errorf("analyzed at = %v, want %v", resp.Analysis.AnalyzedAt, want)
	}
	// Unknown fields survive as forward-compatible metadata.
	if resp.Analysis.Metadata["body_type"] != "stocky" {
		t.Errorf("metadata = %v", resp.Analysis.Metadata)
	}

	if resp.ProcessedImage == nil {
		t.Fatal("expected processed image")
	}
	if !resp.ProcessedImage.Processed {
		t.Error("processed flag not set")
	}
	if string(resp.ProcessedImage.Data) != string(processedBytes) {
		t.Errorf("processed data = %q", resp.ProcessedImage.Data)
	}
	if resp.ProcessingTimeMS != 42 {
		t.Errorf("processing time = %d", resp.ProcessingTimeMS)
	}
}

func TestMissingTimestampDefaultsToNow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"analysis_result": map[string]any{
				"color":       "white",
				"hair_length": "short",
				"confidence":  0.5,
			},
		})
	}))
	defer srv.Close()

	before := time.Now()
	resp, err := testClient(t, srv.URL, time.Second).AnalyzeAndProcess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Analysis.AnalyzedAt.Before(before) {
		t.Errorf("analyzed at = %v, expected defaulted to now", resp.Analysis.AnalyzedAt)
	}
	if resp.ProcessedImage != nil {
		t.Error("expected no processed image")
	}
}

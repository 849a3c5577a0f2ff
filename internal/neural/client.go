package neural

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"catgroom/internal/models"
	"catgroom/internal/procerr"
)

// maxErrorBody bounds how much of an upstream error body is surfaced.
const maxErrorBody = 500

// Options configures the inference backend client.
type Options struct {
	BaseURL string
	Timeout time.Duration

	HTTPClient *http.Client
}

// Client owns the wire protocol to the remote inference backend. Every
// failure surfaces as a *procerr.Error with a stable id from the neural_api
// taxonomy; the client never retries.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func NewClient(opts Options, log *zap.SugaredLogger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: baseURL, timeout: timeout, httpClient: hc, log: log}, nil
}

// AnalyzeAndProcess sends one multipart request carrying the image bytes and
// metadata, and parses the response into characteristics plus a processed
// image. Exactly one network round trip per call.
func (c *Client) AnalyzeAndProcess(ctx context.Context, req Request) (*Response, error) {
	body, contentType, err := c.buildForm(req)
	if err != nil {
		return nil, procerr.New("NEURAL_API_BAD_REQUEST", procerr.TypeNeuralAPI, "Malformed request").
			WithDetails(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, body)
	if err != nil {
		return nil, procerr.New("NEURAL_API_BAD_REQUEST", procerr.TypeNeuralAPI, "Malformed request").
			WithDetails(err.Error())
	}
	httpReq.Header.Set("Content-Type", contentType)

	c.log.Debugw("sending inference request", "url", c.baseURL, "filename", req.Image.FileName)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	c.log.Infow("inference backend responded", "status", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}
	return c.parseSuccess(resp.Body)
}

func (c *Client) buildForm(req Request) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename="%s"`, req.Image.FileName))
	header.Set("Content-Type", "image/"+strings.ToLower(req.Image.Format))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Image.Data); err != nil {
		return nil, "", err
	}

	meta := requestMetadata{
		ProcessedAt: req.ProcessingType,
		ImageMetadata: imageMetadata{
			Filename:   req.Image.FileName,
			Format:     req.Image.Format,
			Size:       req.Image.Size,
			Resolution: req.Image.Resolution,
		},
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("metadata", string(metaJSON)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) parseSuccess(r io.Reader) (*Response, error) {
	var wire successResponse
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, procerr.New("NEURAL_API_UNKNOWN", procerr.TypeNeuralAPI, "Unparseable backend response").
			WithDetails(err.Error()).
			WithSuggestions("Try again later", "Contact support")
	}

	analysis := parseAnalysis(wire.AnalysisResult)

	var processed *models.ImageAsset
	if wire.ProcessedImage != nil {
		data, err := base64.StdEncoding.DecodeString(wire.ProcessedImage.Data)
		if err != nil {
			return nil, procerr.New("NEURAL_API_UNKNOWN", procerr.TypeNeuralAPI, "Corrupt processed image payload").
				WithDetails(err.Error())
		}
		processed = &models.ImageAsset{
			FileName:   wire.ProcessedImage.Filename,
			Data:       data,
			Size:       int64(len(data)),
			Format:     wire.ProcessedImage.Format,
			Resolution: wire.ProcessedImage.Resolution,
			Processed:  true,
		}
	}

	return &Response{
		Analysis:         analysis,
		ProcessedImage:   processed,
		ProcessingTimeMS: wire.ProcessingTimeMS,
		Metadata:         wire.ProcessingMetadata,
	}, nil
}

// parseAnalysis lifts the known characteristic fields out of the payload and
// keeps everything else as forward-compatible metadata.
func parseAnalysis(raw map[string]any) models.AnalysisResult {
	res := models.AnalysisResult{
		Color:          stringField(raw, "color", "unknown"),
		HairLength:     stringField(raw, "hair_length", "unknown"),
		PredictedClass: stringField(raw, "predicted_class", ""),
		AnalyzedAt:     time.Now(),
	}
	if v, ok := raw["confidence"].(float64); ok {
		res.Confidence = v
	}
	if ts, ok := raw["analysis_timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			res.AnalyzedAt = t
		}
	}

	known := map[string]bool{
		"color": true, "hair_length": true, "predicted_class": true,
		"confidence": true, "analysis_timestamp": true,
	}
	for k, v := range raw {
		if known[k] {
			continue
		}
		if res.Metadata == nil {
			res.Metadata = make(map[string]any)
		}
		res.Metadata[k] = v
	}
	return res
}

func stringField(raw map[string]any, key, fallback string) string {
	if v, ok := raw[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func (c *Client) transportError(err error) *procerr.Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.log.Warnw("inference backend timed out", "timeout", c.timeout)
		return procerr.New("NEURAL_API_TIMEOUT", procerr.TypeNeuralAPI, "Inference backend did not respond in time").
			WithSuggestions("Increase the timeout", "Try again later")
	}
	c.log.Warnw("inference backend unreachable", "error", err)
	return procerr.New("NEURAL_API_CONNECTION", procerr.TypeNeuralAPI, "Failed to connect to inference backend").
		WithDetails(err.Error()).
		WithSuggestions("Check the network connection", "Check the backend URL")
}

func (c *Client) statusError(resp *http.Response) *procerr.Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
	errorID, message := mapStatus(resp.StatusCode)
	c.log.Warnw("inference backend returned error", "status", resp.StatusCode, "error_id", errorID)
	return procerr.New(errorID, procerr.TypeNeuralAPI,
		fmt.Sprintf("%s (status: %d)", message, resp.StatusCode)).
		WithDetails(procerr.Truncate(string(raw), maxErrorBody)).
		WithSuggestions(statusSuggestions(resp.StatusCode)...)
}

// mapStatus is a pure function of the HTTP status code; unmapped codes fall
// to NEURAL_API_UNKNOWN.
func mapStatus(status int) (string, string) {
	switch status {
	case http.StatusBadRequest:
		return "NEURAL_API_BAD_REQUEST", "Malformed request"
	case http.StatusUnauthorized:
		return "NEURAL_API_UNAUTHORIZED", "Unauthorized"
	case http.StatusForbidden:
		return "NEURAL_API_FORBIDDEN", "Forbidden"
	case http.StatusNotFound:
		return "NEURAL_API_NOT_FOUND", "Resource not found"
	case http.StatusTooManyRequests:
		return "NEURAL_API_RATE_LIMIT", "Rate limit exceeded"
	case http.StatusInternalServerError:
		return "NEURAL_API_SERVER_ERROR", "Internal error in inference backend"
	case http.StatusServiceUnavailable:
		return "NEURAL_API_UNAVAILABLE", "Inference backend unavailable"
	default:
		return "NEURAL_API_UNKNOWN", "Unknown error"
	}
}

func statusSuggestions(status int) []string {
	switch status {
	case http.StatusBadRequest:
		return []string{"Check the submitted image format", "Verify the request metadata"}
	case http.StatusUnauthorized:
		return []string{"Check the API key", "Refresh the authorization token"}
	case http.StatusTooManyRequests:
		return []string{"Reduce request frequency", "Try again later"}
	case http.StatusInternalServerError:
		return []string{"Try again later", "Contact inference service support"}
	case http.StatusServiceUnavailable:
		return []string{"The service is temporarily unavailable", "Try again in a few minutes"}
	default:
		return []string{"Try again later", "Contact support"}
	}
}

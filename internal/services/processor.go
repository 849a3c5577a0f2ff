package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"catgroom/internal/models"
	"catgroom/internal/neural"
	"catgroom/internal/procerr"
	"catgroom/internal/repository"
	"catgroom/internal/session"
	"catgroom/internal/validation"
)

// Gateway is the inference backend boundary the processor talks to.
type Gateway interface {
	AnalyzeAndProcess(ctx context.Context, req neural.Request) (*neural.Response, error)
}

// BlobStore persists image bytes outside the database.
type BlobStore interface {
	SaveOriginal(catID int64, filename string, data []byte) (string, error)
	SaveProcessed(catID int64, filename string, data []byte) (string, error)
}

// ProcessedImageResponse is the client-facing shape of a backend-processed
// image, with the bytes base64 encoded.
type ProcessedImageResponse struct {
	FileName       string `json:"filename"`
	Data           string `json:"data"`
	Format         string `json:"format"`
	Resolution     string `json:"resolution"`
	ProcessingType string `json:"processing_type"`
}

// ProcessingResult is the terminal outcome of one pipeline run. The pipeline
// never lets a failure escape past this boundary: Status is either
// "completed" or "error", and Error is set in the latter case.
type ProcessingResult struct {
	SessionID        string                  `json:"session_id"`
	CatID            int64                   `json:"cat_id"`
	Characteristics  *models.AnalysisResult  `json:"characteristics,omitempty"`
	ProcessedImage   *ProcessedImageResponse `json:"processed_image,omitempty"`
	ProcessingTimeMS int64                   `json:"processing_time_ms"`
	Status           string                  `json:"status"`
	Error            *procerr.Error          `json:"error,omitempty"`
}

// OnComplete is invoked after a run reaches "completed", outside the failure
// path. Used to push events to connected clients.
type OnComplete func(sessionID string, catID int64, analysis models.AnalysisResult)

// Processor sequences validation, cat resolution, original persistence, the
// remote inference call and result persistence for one session image.
type Processor struct {
	sessions        session.Store
	cats            repository.Cats
	images          repository.Images
	characteristics repository.Characteristics
	gateway         Gateway
	blobs           BlobStore
	onComplete      OnComplete
	log             *zap.SugaredLogger
}

func NewProcessor(
	sessions session.Store,
	cats repository.Cats,
	images repository.Images,
	characteristics repository.Characteristics,
	gateway Gateway,
	blobs BlobStore,
	onComplete OnComplete,
	log *zap.SugaredLogger,
) *Processor {
	return &Processor{
		sessions:        sessions,
		cats:            cats,
		images:          images,
		characteristics: characteristics,
		gateway:         gateway,
		blobs:           blobs,
		onComplete:      onComplete,
		log:             log,
	}
}

// Run processes the image attached to the session. catID zero means "create
// a new cat". Steps before persistence commit nothing; there is no
// compensating rollback for writes that already landed when a later step
// fails.
func (p *Processor) Run(ctx context.Context, sessionID string, catID int64) ProcessingResult {
	start := time.Now()
	p.log.Infow("processing started", "session_id", sessionID, "cat_id", catID)

	sess, err := p.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return p.fail(ctx, start, sessionID, catID,
				procerr.New("SESSION_NOT_FOUND", procerr.TypePersistence, "Session not found"))
		}
		return p.fail(ctx, start, sessionID, catID, classify(err))
	}
	if sess.Image == nil {
		return p.fail(ctx, start, sessionID, catID,
			procerr.New("VALIDATION_FAILED", procerr.TypeValidation, "Validation failed").
				WithDetails("no image attached to session"))
	}
	img := *sess.Image

	// Validating
	if res := validation.ValidateImage(&img); !res.IsValid {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msgs = append(msgs, e.Message)
		}
		p.log.Warnw("validation failed", "session_id", sessionID, "errors", msgs)
		return p.fail(ctx, start, sessionID, catID,
			procerr.New("VALIDATION_FAILED", procerr.TypeValidation, "Validation failed").
				WithDetails(strings.Join(msgs, "; ")))
	}

	// Resolve cat
	var cat *models.Cat
	if catID == 0 {
		cat, err = p.cats.Create(ctx)
		if err != nil {
			return p.fail(ctx, start, sessionID, catID, classify(err))
		}
	} else {
		cat, err = p.cats.GetByID(ctx, catID)
		if err != nil {
			return p.fail(ctx, start, sessionID, catID, classify(err))
		}
		if cat == nil {
			return p.fail(ctx, start, sessionID, catID,
				procerr.New("CAT_NOT_FOUND", procerr.TypePersistence, "Cat not found"))
		}
	}
	if _, err := p.sessions.LinkCat(ctx, sessionID, cat.ID); err != nil {
		return p.fail(ctx, start, sessionID, cat.ID, classify(err))
	}

	// Persisting original
	if err := p.saveImage(ctx, cat.ID, img, false); err != nil {
		return p.fail(ctx, start, sessionID, cat.ID, classify(err))
	}

	// Calling remote
	resp, err := p.gateway.AnalyzeAndProcess(ctx, neural.Request{
		Image:          img,
		ProcessingType: "analysis_and_enhancement",
	})
	if err != nil {
		return p.fail(ctx, start, sessionID, cat.ID, classify(err))
	}

	// Persisting result
	var processedResp *ProcessedImageResponse
	if resp.ProcessedImage != nil {
		if err := p.saveImage(ctx, cat.ID, *resp.ProcessedImage, true); err != nil {
			return p.fail(ctx, start, sessionID, cat.ID, classify(err))
		}
		processedResp = &ProcessedImageResponse{
			FileName:       resp.ProcessedImage.FileName,
			Data:           base64.StdEncoding.EncodeToString(resp.ProcessedImage.Data),
			Format:         resp.ProcessedImage.Format,
			Resolution:     resp.ProcessedImage.Resolution,
			ProcessingType: "enhanced",
		}
	}

	characteristic := models.CatCharacteristic{
		CatID:          cat.ID,
		Color:          resp.Analysis.Color,
		HairLength:     resp.Analysis.HairLength,
		PredictedClass: resp.Analysis.PredictedClass,
		Confidence:     resp.Analysis.Confidence,
		AnalyzedAt:     resp.Analysis.AnalyzedAt,
	}
	if err := p.characteristics.Create(ctx, &characteristic); err != nil {
		return p.fail(ctx, start, sessionID, cat.ID, classify(err))
	}

	// Completed
	if _, err := p.sessions.SetStatus(ctx, sessionID, session.StatusCompleted); err != nil {
		p.log.Warnw("failed to mark session completed", "session_id", sessionID, "error", err)
	}
	elapsed := time.Since(start).Milliseconds()
	p.log.Infow("processing completed", "session_id", sessionID, "cat_id", cat.ID, "elapsed_ms", elapsed)

	if p.onComplete != nil {
		p.onComplete(sessionID, cat.ID, resp.Analysis)
	}

	analysis := resp.Analysis
	return ProcessingResult{
		SessionID:        sessionID,
		CatID:            cat.ID,
		Characteristics:  &analysis,
		ProcessedImage:   processedResp,
		ProcessingTimeMS: elapsed,
		Status:           "completed",
	}
}

func (p *Processor) saveImage(ctx context.Context, catID int64, img models.ImageAsset, processed bool) error {
	var (
		path string
		err  error
	)
	if processed {
		path, err = p.blobs.SaveProcessed(catID, img.FileName, img.Data)
	} else {
		path, err = p.blobs.SaveOriginal(catID, img.FileName, img.Data)
	}
	if err != nil {
		return fmt.Errorf("store image: %w", err)
	}

	if processed {
		if thumb, terr := thumbnail(img.Data); terr == nil {
			if _, werr := p.blobs.SaveProcessed(catID, "thumb_"+img.FileName, thumb); werr != nil {
				p.log.Warnw("thumbnail save failed", "cat_id", catID, "error", werr)
			}
		}
	}

	uploadedAt := img.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}
	return p.images.Create(ctx, &models.CatImage{
		CatID:       catID,
		FileName:    img.FileName,
		StoragePath: path,
		Size:        img.Size,
		Format:      img.Format,
		Resolution:  img.Resolution,
		Processed:   processed,
		UploadedAt:  uploadedAt,
	})
}

// thumbnail renders a 512x512 JPEG preview of a processed image.
func thumbnail(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fill(src, 512, 512, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Processor) fail(ctx context.Context, start time.Time, sessionID string, catID int64, perr *procerr.Error) ProcessingResult {
	if _, err := p.sessions.SetStatus(ctx, sessionID, session.StatusError); err != nil {
		p.log.Warnw("failed to mark session errored", "session_id", sessionID, "error", err)
	}
	elapsed := time.Since(start).Milliseconds()
	p.log.Warnw("processing failed",
		"session_id", sessionID, "cat_id", catID,
		"error_id", perr.ID, "elapsed_ms", elapsed)
	return ProcessingResult{
		SessionID:        sessionID,
		CatID:            catID,
		ProcessingTimeMS: elapsed,
		Status:           "error",
		Error:            perr,
	}
}

// classify keeps structured pipeline errors intact and wraps everything else
// so callers always receive a ProcessingResult, never a bare fault.
func classify(err error) *procerr.Error {
	var perr *procerr.Error
	if errors.As(err, &perr) {
		return perr
	}
	return procerr.New("UNKNOWN_ERROR", procerr.TypeSystem, "Internal server error").
		WithDetails(err.Error())
}

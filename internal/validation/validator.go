package validation

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	"catgroom/internal/models"
	"catgroom/internal/procerr"
)

const (
	// MaxImageSize is the upload size limit in bytes.
	MaxImageSize = 10 << 20
	MinWidth     = 640
	MinHeight    = 480
)

// Result collects all rule violations for one image; IsValid is true iff
// the error list is empty.
type Result struct {
	IsValid bool             `json:"is_valid"`
	Errors  []*procerr.Error `json:"errors"`
}

// ValidateImage gates expensive work. An oversized payload is never decoded,
// and a decode failure skips the resolution check, so format and resolution
// errors are mutually exclusive per image. On a successful decode the
// asset's Resolution is filled in as a side effect.
func ValidateImage(img *models.ImageAsset) Result {
	var errs []*procerr.Error

	if img.Size > MaxImageSize {
		errs = append(errs, procerr.New(
			"VALIDATION_SIZE",
			procerr.TypeValidation,
			fmt.Sprintf("Image %s exceeds 10MB", img.FileName),
		).WithSuggestions("Use an image up to 10MB"))
		return Result{IsValid: false, Errors: errs}
	}

	decoded, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		errs = append(errs, procerr.New(
			"VALIDATION_FORMAT",
			procerr.TypeValidation,
			fmt.Sprintf("Invalid image format for %s", img.FileName),
		).WithDetails(err.Error()).
			WithSuggestions("Use JPEG or PNG format"))
		return Result{IsValid: false, Errors: errs}
	}

	bounds := decoded.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	img.Resolution = fmt.Sprintf("%dx%d", width, height)

	if width < MinWidth || height < MinHeight {
		errs = append(errs, procerr.New(
			"VALIDATION_RESOLUTION",
			procerr.TypeValidation,
			fmt.Sprintf("Image %s has insufficient resolution", img.FileName),
		).WithDetails(fmt.Sprintf("current: %dx%d, minimum: %dx%d", width, height, MinWidth, MinHeight)).
			WithSuggestions("Use an image with a higher resolution"))
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"catgroom/internal/models"
	"catgroom/internal/procerr"
	"catgroom/internal/repository"
)

const noHaircutReason = "No haircut in the catalog matched the current characteristics"

// HaircutRecommendation is one ranked entry returned to the caller.
type HaircutRecommendation struct {
	HaircutName         string `json:"haircut_name"`
	HaircutDescription  string `json:"haircut_description"`
	SuitabilityReason   string `json:"suitability_reason"`
	IsNoHaircutRequired bool   `json:"is_no_haircut_required"`
}

// RecommendationResult carries the ranked list plus the ordered step labels
// executed, for observability.
type RecommendationResult struct {
	CatID            int64                   `json:"cat_id"`
	Recommendations  []HaircutRecommendation `json:"recommendations"`
	ProcessingSteps  []string                `json:"processing_steps"`
	ProcessingTimeMS int64                   `json:"processing_time_ms"`
}

type scoredHaircut struct {
	haircut    *models.Haircut
	score      int
	reasons    []string
	confidence float64
}

// Recommender turns stored characteristics into ranked haircut
// recommendations. Given the same characteristics and catalog, the ranking
// is identical on every invocation.
type Recommender struct {
	characteristics repository.Characteristics
	haircuts        repository.Haircuts
	recommendations repository.Recommendations
	log             *zap.SugaredLogger
}

func NewRecommender(
	characteristics repository.Characteristics,
	haircuts repository.Haircuts,
	recommendations repository.Recommendations,
	log *zap.SugaredLogger,
) *Recommender {
	return &Recommender{
		characteristics: characteristics,
		haircuts:        haircuts,
		recommendations: recommendations,
		log:             log,
	}
}

func (r *Recommender) Recommend(ctx context.Context, catID int64) (*RecommendationResult, error) {
	start := time.Now()
	steps := []string{"load characteristics"}

	characteristics, err := r.characteristics.GetByCatID(ctx, catID)
	if err != nil {
		return nil, classify(err)
	}
	if len(characteristics) == 0 {
		return nil, procerr.New("CHARACTERISTICS_NOT_FOUND", procerr.TypePersistence,
			"No characteristics recorded for this cat").
			WithSuggestions("Upload and process an image first")
	}

	steps = append(steps, "load haircut catalog")
	catalog, err := r.haircuts.GetAll(ctx)
	if err != nil {
		return nil, classify(err)
	}

	steps = append(steps, "apply matching rules")
	candidates := applyRules(characteristics, catalog)

	steps = append(steps, "rank results")
	top := rank(candidates)

	steps = append(steps, "persist recommendations")
	recs := make([]HaircutRecommendation, 0, len(top))
	if len(top) == 0 {
		rec := HaircutRecommendation{
			HaircutName:         "No haircut",
			HaircutDescription:  "The coat is best left as it is",
			SuitabilityReason:   noHaircutReason,
			IsNoHaircutRequired: true,
		}
		if err := r.recommendations.Create(ctx, &models.Recommendation{
			CatID:               catID,
			IsNoHaircutRequired: true,
			Reason:              rec.SuitabilityReason,
		}); err != nil {
			return nil, classify(err)
		}
		recs = append(recs, rec)
	} else {
		for _, sc := range top {
			haircutID := sc.haircut.ID
			reason := fmt.Sprintf("%s (score: %d)", strings.Join(sc.reasons, ". "), sc.score)
			if err := r.recommendations.Create(ctx, &models.Recommendation{
				CatID:      catID,
				HaircutID:  &haircutID,
				Reason:     reason,
				Confidence: sc.confidence,
			}); err != nil {
				return nil, classify(err)
			}
			recs = append(recs, HaircutRecommendation{
				HaircutName:        sc.haircut.Name,
				HaircutDescription: sc.haircut.Description,
				SuitabilityReason:  reason,
			})
		}
	}

	elapsed := time.Since(start).Milliseconds()
	r.log.Infow("recommendations ready", "cat_id", catID, "count", len(recs), "elapsed_ms", elapsed)
	return &RecommendationResult{
		CatID:            catID,
		Recommendations:  recs,
		ProcessingSteps:  steps,
		ProcessingTimeMS: elapsed,
	}, nil
}

// applyRules scores every (characteristic, haircut) pair: +1 when the hair
// length is accepted, +1 when the color is accepted. Pairs scoring zero are
// dropped. Candidate order is characteristic order then catalog order, which
// rank relies on for deterministic tie-breaking.
func applyRules(characteristics []models.CatCharacteristic, catalog []models.Haircut) []scoredHaircut {
	var out []scoredHaircut
	for _, c := range characteristics {
		for i := range catalog {
			h := &catalog[i]
			score := 0
			var reasons []string
			if contains(h.SuitableHairLengths, c.HairLength) {
				score++
				reasons = append(reasons, fmt.Sprintf("Suitable for %q hair", c.HairLength))
			}
			if contains(h.SuitableColors, c.Color) {
				score++
				reasons = append(reasons, fmt.Sprintf("Suitable for %q color", c.Color))
			}
			if score >= 1 {
				out = append(out, scoredHaircut{
					haircut:    h,
					score:      score,
					reasons:    reasons,
					confidence: c.Confidence,
				})
			}
		}
	}
	return out
}

// rank sorts descending by score; the stable sort preserves catalog order
// between equal scores. At most three candidates survive.
func rank(candidates []scoredHaircut) []scoredHaircut {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	return candidates
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"catgroom/internal/models"
	"catgroom/internal/procerr"
)

func seedCharacteristic(t *testing.T, chars *fakeCharacteristics, catID int64, color, hairLength string, confidence float64) {
	t.Helper()
	err := chars.Create(context.Background(), &models.CatCharacteristic{
		CatID:      catID,
		Color:      color,
		HairLength: hairLength,
		Confidence: confidence,
		AnalyzedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed characteristic: %v", err)
	}
}

func seedHaircut(t *testing.T, haircuts *fakeHaircuts, name string, lengths, colors []string) {
	t.Helper()
	err := haircuts.Create(context.Background(), &models.Haircut{
		Name:                name,
		Description:         name + " description",
		SuitableHairLengths: lengths,
		SuitableColors:      colors,
	})
	if err != nil {
		t.Fatalf("seed haircut: %v", err)
	}
}

func TestRecommendRanking(t *testing.T) {
	chars := &fakeCharacteristics{}
	haircuts := &fakeHaircuts{}
	recs := &fakeRecommendations{}
	seedCharacteristic(t, chars, 1, "black", "long", 0.9)

	// Full match, color-only match, length-only match, no match.
	seedHaircut(t, haircuts, "Color only", []string{"short"}, []string{"black"})
	seedHaircut(t, haircuts, "Full match", []string{"long"}, []string{"black"})
	seedHaircut(t, haircuts, "Length only", []string{"long"}, []string{"white"})
	seedHaircut(t, haircuts, "No match", []string{"short"}, []string{"white"})

	rec := NewRecommender(chars, haircuts, recs, zap.NewNop().Sugar())
	res, err := rec.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	got := make([]string, 0, len(res.Recommendations))
	for _, r := range res.Recommendations {
		got = append(got, r.HaircutName)
	}
	// Score 2 first, then score-1 entries in catalog order.
	want := []string{"Full match", "Color only", "Length only"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranking = %v, want %v", got, want)
	}
	for _, r := range res.Recommendations {
		if r.IsNoHaircutRequired {
			t.Errorf("%s flagged as no-haircut", r.HaircutName)
		}
	}

	rows, _ := recs.GetByCatID(context.Background(), 1)
	if len(rows) != 3 {
		t.Fatalf("persisted %d rows, want 3", len(rows))
	}
	for _, row := range rows {
		if row.HaircutID == nil {
			t.Error("persisted row missing haircut id")
		}
		if row.Confidence != 0.9 {
			t.Errorf("confidence = %v, want 0.9", row.Confidence)
		}
	}
}

func TestRecommendDeterministic(t *testing.T) {
	chars := &fakeCharacteristics{}
	haircuts := &fakeHaircuts{}
	seedCharacteristic(t, chars, 1, "gray", "medium", 0.8)
	seedHaircut(t, haircuts, "A", []string{"medium"}, []string{"gray"})
	seedHaircut(t, haircuts, "B", []string{"medium"}, []string{"gray"})
	seedHaircut(t, haircuts, "C", []string{"medium"}, []string{"white"})

	rec := NewRecommender(chars, haircuts, &fakeRecommendations{}, zap.NewNop().Sugar())

	first, err := rec.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := rec.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first.Recommendations, second.Recommendations) {
		t.Errorf("rankings differ:\n  first:  %+v\n  second: %+v",
			first.Recommendations, second.Recommendations)
	}
	// Equal scores keep catalog order.
	if first.Recommendations[0].HaircutName != "A" || first.Recommendations[1].HaircutName != "B" {
		t.Errorf("tie-break order = %+v", first.Recommendations)
	}
}

func TestRecommendTopThree(t *testing.T) {
	chars := &fakeCharacteristics{}
	haircuts := &fakeHaircuts{}
	seedCharacteristic(t, chars, 1, "black", "long", 0.7)
	for _, name := range []string{"One", "Two", "Three", "Four", "Five"} {
		seedHaircut(t, haircuts, name, []string{"long"}, []string{"black"})
	}

	rec := NewRecommender(chars, haircuts, &fakeRecommendations{}, zap.NewNop().Sugar())
	res, err := rec.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(res.Recommendations) != 3 {
		t.Errorf("got %d recommendations, want 3", len(res.Recommendations))
	}
}

func TestRecommendNoMatch(t *testing.T) {
	chars := &fakeCharacteristics{}
	haircuts := &fakeHaircuts{}
	recs := &fakeRecommendations{}
	seedCharacteristic(t, chars, 1, "purple", "bald", 0.6)
	seedHaircut(t, haircuts, "Lion cut", []string{"long"}, []string{"black"})

	rec := NewRecommender(chars, haircuts, recs, zap.NewNop().Sugar())
	res, err := rec.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(res.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(res.Recommendations))
	}
	if !res.Recommendations[0].IsNoHaircutRequired {
		t.Error("expected the no-haircut marker")
	}

	rows, _ := recs.GetByCatID(context.Background(), 1)
	if len(rows) != 1 {
		t.Fatalf("persisted %d rows, want 1", len(rows))
	}
	if rows[0].HaircutID != nil {
		t.Error("synthetic row should have no haircut id")
	}
	if !rows[0].IsNoHaircutRequired {
		t.Error("synthetic row not flagged")
	}
}

func TestRecommendNoCharacteristics(t *testing.T) {
	rec := NewRecommender(&fakeCharacteristics{}, &fakeHaircuts{}, &fakeRecommendations{}, zap.NewNop().Sugar())

	_, err := rec.Recommend(context.Background(), 99)
	var perr *procerr.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *procerr.Error, got %v", err)
	}
	if perr.ID != "CHARACTERISTICS_NOT_FOUND" {
		t.Errorf("error id = %s, want CHARACTERISTICS_NOT_FOUND", perr.ID)
	}
}

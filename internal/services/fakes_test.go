package services

import (
	"context"
	"fmt"
	"sync"

	"catgroom/internal/models"
)

// In-memory repository doubles shared by the processor and recommender tests.

type fakeCats struct {
	mu     sync.Mutex
	nextID int64
	cats   map[int64]models.Cat
}

func newFakeCats() *fakeCats {
	return &fakeCats{nextID: 1, cats: map[int64]models.Cat{}}
}

func (f *fakeCats) Create(ctx context.Context) (*models.Cat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cat := models.Cat{ID: f.nextID}
	f.nextID++
	f.cats[cat.ID] = cat
	return &cat, nil
}

func (f *fakeCats) GetByID(ctx context.Context, id int64) (*models.Cat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cat, ok := f.cats[id]
	if !ok {
		return nil, nil
	}
	return &cat, nil
}

func (f *fakeCats) Delete(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cats[id]; !ok {
		return false, nil
	}
	delete(f.cats, id)
	return true, nil
}

type fakeImages struct {
	mu   sync.Mutex
	rows []models.CatImage
}

func (f *fakeImages) Create(ctx context.Context, img *models.CatImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	img.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *img)
	return nil
}

func (f *fakeImages) GetByCatID(ctx context.Context, catID int64) ([]models.CatImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CatImage
	for _, r := range f.rows {
		if r.CatID == catID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeCharacteristics struct {
	mu   sync.Mutex
	rows []models.CatCharacteristic
}

func (f *fakeCharacteristics) Create(ctx context.Context, c *models.CatCharacteristic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeCharacteristics) GetByCatID(ctx context.Context, catID int64) ([]models.CatCharacteristic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CatCharacteristic
	for _, r := range f.rows {
		if r.CatID == catID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeHaircuts struct {
	mu   sync.Mutex
	rows []models.Haircut
}

func (f *fakeHaircuts) Create(ctx context.Context, h *models.Haircut) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *h)
	return nil
}

func (f *fakeHaircuts) GetAll(ctx context.Context) ([]models.Haircut, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Haircut, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeHaircuts) GetByID(ctx context.Context, id int64) (*models.Haircut, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			h := r
			return &h, nil
		}
	}
	return nil, nil
}

func (f *fakeHaircuts) GetByName(ctx context.Context, name string) (*models.Haircut, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Name == name {
			h := r
			return &h, nil
		}
	}
	return nil, nil
}

type fakeRecommendations struct {
	mu   sync.Mutex
	rows []models.Recommendation
}

func (f *fakeRecommendations) Create(ctx context.Context, rec *models.Recommendation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *rec)
	return nil
}

func (f *fakeRecommendations) GetByCatID(ctx context.Context, catID int64) ([]models.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Recommendation
	for _, r := range f.rows {
		if r.CatID == catID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeBlobs struct {
	mu    sync.Mutex
	saved []string
}

func (f *fakeBlobs) SaveOriginal(catID int64, filename string, data []byte) (string, error) {
	return f.save(catID, "original", filename)
}

func (f *fakeBlobs) SaveProcessed(catID int64, filename string, data []byte) (string, error) {
	return f.save(catID, "processed", filename)
}

func (f *fakeBlobs) save(catID int64, kind, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := fmt.Sprintf("%d/%s/%s", catID, kind, filename)
	f.saved = append(f.saved, path)
	return path, nil
}

package repository

import (
	"context"

	"catgroom/internal/models"
)

// One interface per collaborator, one Postgres implementation each. Missing
// rows are reported as (nil, nil), not as errors.

type Cats interface {
	Create(ctx context.Context) (*models.Cat, error)
	GetByID(ctx context.Context, id int64) (*models.Cat, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Images interface {
	Create(ctx context.Context, img *models.CatImage) error
	GetByCatID(ctx context.Context, catID int64) ([]models.CatImage, error)
}

type Characteristics interface {
	Create(ctx context.Context, c *models.CatCharacteristic) error
	GetByCatID(ctx context.Context, catID int64) ([]models.CatCharacteristic, error)
}

type Haircuts interface {
	Create(ctx context.Context, h *models.Haircut) error
	GetAll(ctx context.Context) ([]models.Haircut, error)
	GetByID(ctx context.Context, id int64) (*models.Haircut, error)
	GetByName(ctx context.Context, name string) (*models.Haircut, error)
}

type Recommendations interface {
	Create(ctx context.Context, rec *models.Recommendation) error
	GetByCatID(ctx context.Context, catID int64) ([]models.Recommendation, error)
}

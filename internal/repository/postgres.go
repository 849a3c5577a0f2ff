package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catgroom/internal/models"
)

type PgCats struct {
	db *pgxpool.Pool
}

func NewPgCats(db *pgxpool.Pool) *PgCats { return &PgCats{db: db} }

func (r *PgCats) Create(ctx context.Context) (*models.Cat, error) {
	var cat models.Cat
	err := r.db.QueryRow(ctx, `
		INSERT INTO cats DEFAULT VALUES
		RETURNING id, created_at
	`).Scan(&cat.ID, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert cat: %w", err)
	}
	return &cat, nil
}

func (r *PgCats) GetByID(ctx context.Context, id int64) (*models.Cat, error) {
	var cat models.Cat
	err := r.db.QueryRow(ctx, `
		SELECT id, created_at FROM cats WHERE id = $1
	`, id).Scan(&cat.ID, &cat.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cat: %w", err)
	}
	return &cat, nil
}

func (r *PgCats) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM cats WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete cat: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

type PgImages struct {
	db *pgxpool.Pool
}

func NewPgImages(db *pgxpool.Pool) *PgImages { return &PgImages{db: db} }

func (r *PgImages) Create(ctx context.Context, img *models.CatImage) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO cat_images (cat_id, file_name, storage_path, size, format, resolution, processed, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, img.CatID, img.FileName, img.StoragePath, img.Size, img.Format,
		img.Resolution, img.Processed, img.UploadedAt).Scan(&img.ID)
	if err != nil {
		return fmt.Errorf("insert cat image: %w", err)
	}
	return nil
}

func (r *PgImages) GetByCatID(ctx context.Context, catID int64) ([]models.CatImage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cat_id, file_name, storage_path, size, format, resolution, processed, uploaded_at
		FROM cat_images
		WHERE cat_id = $1
		ORDER BY uploaded_at
	`, catID)
	if err != nil {
		return nil, fmt.Errorf("query cat images: %w", err)
	}
	defer rows.Close()

	var out []models.CatImage
	for rows.Next() {
		var img models.CatImage
		if err := rows.Scan(&img.ID, &img.CatID, &img.FileName, &img.StoragePath,
			&img.Size, &img.Format, &img.Resolution, &img.Processed, &img.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan cat image: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

type PgCharacteristics struct {
	db *pgxpool.Pool
}

func NewPgCharacteristics(db *pgxpool.Pool) *PgCharacteristics {
	return &PgCharacteristics{db: db}
}

func (r *PgCharacteristics) Create(ctx context.Context, c *models.CatCharacteristic) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO cat_characteristics (cat_id, color, hair_length, predicted_class, confidence, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, c.CatID, c.Color, c.HairLength, c.PredictedClass, c.Confidence, c.AnalyzedAt).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert characteristic: %w", err)
	}
	return nil
}

func (r *PgCharacteristics) GetByCatID(ctx context.Context, catID int64) ([]models.CatCharacteristic, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cat_id, color, hair_length, predicted_class, confidence, analyzed_at
		FROM cat_characteristics
		WHERE cat_id = $1
		ORDER BY analyzed_at
	`, catID)
	if err != nil {
		return nil, fmt.Errorf("query characteristics: %w", err)
	}
	defer rows.Close()

	var out []models.CatCharacteristic
	for rows.Next() {
		var c models.CatCharacteristic
		if err := rows.Scan(&c.ID, &c.CatID, &c.Color, &c.HairLength,
			&c.PredictedClass, &c.Confidence, &c.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan characteristic: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type PgHaircuts struct {
	db *pgxpool.Pool
}

func NewPgHaircuts(db *pgxpool.Pool) *PgHaircuts { return &PgHaircuts{db: db} }

func (r *PgHaircuts) Create(ctx context.Context, h *models.Haircut) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO haircuts (name, description, suitable_hair_lengths, suitable_colors, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, h.Name, h.Description, h.SuitableHairLengths, h.SuitableColors, h.Image).
		Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert haircut: %w", err)
	}
	return nil
}

func (r *PgHaircuts) GetAll(ctx context.Context) ([]models.Haircut, error) {
	// id order doubles as catalog insertion order, which the ranking relies
	// on for deterministic tie-breaking.
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, suitable_hair_lengths, suitable_colors, image, created_at
		FROM haircuts
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query haircuts: %w", err)
	}
	defer rows.Close()

	var out []models.Haircut
	for rows.Next() {
		var h models.Haircut
		if err := rows.Scan(&h.ID, &h.Name, &h.Description,
			&h.SuitableHairLengths, &h.SuitableColors, &h.Image, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan haircut: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PgHaircuts) GetByID(ctx context.Context, id int64) (*models.Haircut, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *PgHaircuts) GetByName(ctx context.Context, name string) (*models.Haircut, error) {
	return r.getOne(ctx, `WHERE name = $1`, name)
}

func (r *PgHaircuts) getOne(ctx context.Context, where string, arg any) (*models.Haircut, error) {
	var h models.Haircut
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, suitable_hair_lengths, suitable_colors, image, created_at
		FROM haircuts `+where, arg).
		Scan(&h.ID, &h.Name, &h.Description, &h.SuitableHairLengths,
			&h.SuitableColors, &h.Image, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query haircut: %w", err)
	}
	return &h, nil
}

type PgRecommendations struct {
	db *pgxpool.Pool
}

func NewPgRecommendations(db *pgxpool.Pool) *PgRecommendations {
	return &PgRecommendations{db: db}
}

func (r *PgRecommendations) Create(ctx context.Context, rec *models.Recommendation) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO recommendations (cat_id, haircut_id, is_no_haircut_required, reason, confidence)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, rec.CatID, rec.HaircutID, rec.IsNoHaircutRequired, rec.Reason, rec.Confidence).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

func (r *PgRecommendations) GetByCatID(ctx context.Context, catID int64) ([]models.Recommendation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cat_id, haircut_id, is_no_haircut_required, reason, confidence, created_at
		FROM recommendations
		WHERE cat_id = $1
		ORDER BY created_at
	`, catID)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var out []models.Recommendation
	for rows.Next() {
		var rec models.Recommendation
		if err := rows.Scan(&rec.ID, &rec.CatID, &rec.HaircutID,
			&rec.IsNoHaircutRequired, &rec.Reason, &rec.Confidence, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

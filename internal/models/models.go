package models

import (
	"time"
)

// Cat is the minimal persisted record recommendations attach to. Created
// lazily the first time a session's image is processed.
type Cat struct {
	ID        int64     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CatImage is the persisted record of an uploaded or backend-processed image.
type CatImage struct {
	ID          int64     `db:"id" json:"id"`
	CatID       int64     `db:"cat_id" json:"cat_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	StoragePath string    `db:"storage_path" json:"-"`
	Size        int64     `db:"size" json:"size"`
	Format      string    `db:"format" json:"format"`
	Resolution  string    `db:"resolution" json:"resolution"`
	Processed   bool      `db:"processed" json:"processed"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// CatCharacteristic is one analysis outcome stored for a cat. A cat may
// accumulate several rows over time, one per completed processing run.
type CatCharacteristic struct {
	ID             int64     `db:"id" json:"id"`
	CatID          int64     `db:"cat_id" json:"cat_id"`
	Color          string    `db:"color" json:"color"`
	HairLength     string    `db:"hair_length" json:"hair_length"`
	PredictedClass string    `db:"predicted_class" json:"predicted_class"`
	Confidence     float64   `db:"confidence" json:"confidence"`
	AnalyzedAt     time.Time `db:"analyzed_at" json:"analyzed_at"`
}

// Haircut is a grooming style catalog entry. Read-mostly reference data.
type Haircut struct {
	ID                  int64     `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Description         string    `db:"description" json:"description"`
	SuitableHairLengths []string  `db:"suitable_hair_lengths" json:"suitable_hair_lengths"`
	SuitableColors      []string  `db:"suitable_colors" json:"suitable_colors"`
	Image               []byte    `db:"image" json:"-"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// Recommendation is one persisted ranking outcome. HaircutID is nil for the
// synthetic "no haircut required" result.
type Recommendation struct {
	ID                  int64     `db:"id" json:"id"`
	CatID               int64     `db:"cat_id" json:"cat_id"`
	HaircutID           *int64    `db:"haircut_id" json:"haircut_id"`
	IsNoHaircutRequired bool      `db:"is_no_haircut_required" json:"is_no_haircut_required"`
	Reason              string    `db:"reason" json:"reason"`
	Confidence          float64   `db:"confidence" json:"confidence"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

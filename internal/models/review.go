// internal/models/review.go
package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

type ReviewImage struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

type ReviewImageList []ReviewImage

func (r ReviewImageList) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

func (r *ReviewImageList) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	bytes, err := rawJSONBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, r)
}

// Review ties a rating and/or comment from one user to one product. Rating is
// optional; unrated reviews never contribute to the product's average.
type Review struct {
	BaseModel
	ProductID uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	Rating    *int            `json:"rating,omitempty"`
	Comment   string          `json:"comment,omitempty" gorm:"type:text"`
	Images    ReviewImageList `json:"images,omitempty" gorm:"type:jsonb"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

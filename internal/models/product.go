// internal/models/product.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Feature is a display bullet on the product page: a predefined icon
// reference plus a short label.
type Feature struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

type FeatureList []Feature

func (f FeatureList) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

func (f *FeatureList) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	bytes, err := rawJSONBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, f)
}

type Video struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type VideoList []Video

func (v VideoList) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (v *VideoList) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	bytes, err := rawJSONBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, v)
}

// DiscountWindow is a time-bound percentage discount. All three fields are
// set together or not at all.
type DiscountWindow struct {
	Percentage *float64   `json:"percentage,omitempty" gorm:"type:decimal(5,2)"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// IsSet reports whether a discount is currently recorded.
func (d DiscountWindow) IsSet() bool {
	return d.Percentage != nil && d.StartDate != nil && d.EndDate != nil
}

// ActiveAt reports whether the window covers t, inclusive on both ends.
func (d DiscountWindow) ActiveAt(t time.Time) bool {
	if !d.IsSet() {
		return false
	}
	return !t.Before(*d.StartDate) && !t.After(*d.EndDate)
}

type Product struct {
	BaseModel
	Name                string         `json:"name" gorm:"size:100;not null;index"`
	Tagline             string         `json:"tagline" gorm:"size:140;not null"`
	Description         string         `json:"description" gorm:"type:text;not null"`
	Category            string         `json:"category,omitempty" gorm:"size:100;index"`
	Tags                pq.StringArray `json:"tags" gorm:"type:text[]"`
	Features            FeatureList    `json:"features" gorm:"type:jsonb"`
	Videos              VideoList      `json:"videos,omitempty" gorm:"type:jsonb"`
	NutritionalContent  string         `json:"nutritional_content" gorm:"type:text"`
	Certifications      string         `json:"certifications,omitempty" gorm:"type:text"`
	UsageInstructions   string         `json:"usage_instructions" gorm:"type:text"`
	EnvironmentalImpact string         `json:"environmental_impact,omitempty" gorm:"type:text"`
	ReturnPolicy        string         `json:"return_policy,omitempty" gorm:"type:text"`
	Status              ProductStatus  `json:"status" gorm:"type:varchar(20);default:'inactive';index"`
	AverageRating       float64        `json:"average_rating" gorm:"type:decimal(3,2);default:0"`
	Discount            DiscountWindow `json:"discount" gorm:"embedded;embeddedPrefix:discount_"`

	// Relationships
	Images          []ProductImage         `json:"images,omitempty" gorm:"foreignKey:ProductID"`
	Variants        []Variant              `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
	DiscountHistory []DiscountHistoryEntry `json:"discount_history,omitempty" gorm:"foreignKey:ProductID"`
}

// ImageLocked reports whether the lifecycle state forbids image mutation.
func (p *Product) ImageLocked() bool {
	return p.Status == ProductStatusArchived || p.Status == ProductStatusDeleted
}

// ProductImage is one entry of a product's ordered image gallery. StorageKey
// keeps the object-store reference so a failed batch can be cleaned up.
type ProductImage struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ProductID    uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	URL          string    `json:"url" gorm:"size:512;not null"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty" gorm:"size:512"`
	AltText      string    `json:"alt_text,omitempty" gorm:"size:255"`
	StorageKey   string    `json:"-" gorm:"size:512"`
	IsPrimary    bool      `json:"is_primary" gorm:"default:false"`
	Position     int       `json:"position" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
}

func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Variant is a purchasable size/SKU of a product, owned exclusively by it.
type Variant struct {
	BaseModel
	ProductID         uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;index"`
	Label             string         `json:"label" gorm:"size:60;not null"`
	Price             float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	SKU               *string        `json:"sku,omitempty" gorm:"size:100;index"`
	Stock             int            `json:"stock" gorm:"not null;default:0"`
	Weight            string         `json:"weight,omitempty" gorm:"size:50"`
	Height            string         `json:"height,omitempty" gorm:"size:50"`
	Width             string         `json:"width,omitempty" gorm:"size:50"`
	Depth             string         `json:"depth,omitempty" gorm:"size:50"`
	Packaging         string         `json:"packaging,omitempty" gorm:"size:1000"`
	Description       string         `json:"description,omitempty" gorm:"size:140"`
	LowStockThreshold int            `json:"low_stock_threshold" gorm:"not null;default:50"`
	Discount          DiscountWindow `json:"discount" gorm:"embedded;embeddedPrefix:discount_"`
}

// LowStock reports whether the variant needs replenishment.
func (v *Variant) LowStock() bool {
	return v.Stock < v.LowStockThreshold
}

// DiscountHistoryEntry is an immutable audit record of a past discount
// window. Appended, never edited or removed.
type DiscountHistoryEntry struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ProductID  *uuid.UUID `json:"product_id,omitempty" gorm:"type:uuid;index"`
	VariantID  *uuid.UUID `json:"variant_id,omitempty" gorm:"type:uuid;index"`
	ComboID    *uuid.UUID `json:"combo_id,omitempty" gorm:"type:uuid;index"`
	Percentage float64    `json:"percentage" gorm:"type:decimal(5,2);not null"`
	StartDate  time.Time  `json:"start_date" gorm:"not null"`
	EndDate    time.Time  `json:"end_date" gorm:"not null"`
	AddedBy    uuid.UUID  `json:"added_by" gorm:"type:uuid;not null"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (e *DiscountHistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// internal/models/combo.go
package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Combo is a named package of existing product variants sold together. Its
// lifecycle is independent of the status of the constituent products.
type Combo struct {
	BaseModel
	Name            string                 `json:"name" gorm:"size:100;not null"`
	Description     string                 `json:"description" gorm:"type:text;not null"`
	Image           string                 `json:"image" gorm:"size:512"`
	Price           float64                `json:"price" gorm:"type:decimal(10,2);not null"`
	Status          ComboStatus            `json:"status" gorm:"type:varchar(20);default:'active';index"`
	Discount        DiscountWindow         `json:"discount" gorm:"embedded;embeddedPrefix:discount_"`
	Metadata        JSONB                  `json:"metadata,omitempty" gorm:"type:jsonb"`
	Items           []ComboItem            `json:"items,omitempty" gorm:"foreignKey:ComboID"`
	DiscountHistory []DiscountHistoryEntry `json:"discount_history,omitempty" gorm:"foreignKey:ComboID"`
}

// ComboItem references one variant and how many of it the combo contains.
type ComboItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ComboID   uuid.UUID `json:"combo_id" gorm:"type:uuid;not null;index"`
	VariantID uuid.UUID `json:"variant_id" gorm:"type:uuid;not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`

	Variant Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

func (i *ComboItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

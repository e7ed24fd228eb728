// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the primary key. IDs are generated app-side so the
// schema is identical on Postgres and the SQLite test databases.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL (stored as plain JSON text on SQLite)
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, err := rawJSONBytes(value)
	if err != nil {
		return err
	}

	return json.Unmarshal(bytes, j)
}

func rawJSONBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}

// Enums

type UserRole string

const (
	RoleFounder          UserRole = "founder"
	RoleInventoryManager UserRole = "inventory_manager"
	RoleDispatch         UserRole = "dispatch"
	RoleContentManager   UserRole = "content_manager"
	RoleCustomer         UserRole = "customer"
)

// ValidRole reports whether r belongs to the closed role set. Roles are not
// extensible at runtime so authorization stays statically verifiable.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleFounder, RoleInventoryManager, RoleDispatch, RoleContentManager, RoleCustomer:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

type ProductStatus string

const (
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusUpcoming ProductStatus = "upcoming"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
	ProductStatusDeleted  ProductStatus = "deleted"
)

func ValidProductStatus(s ProductStatus) bool {
	switch s {
	case ProductStatusInactive, ProductStatusUpcoming, ProductStatusActive,
		ProductStatusArchived, ProductStatusDeleted:
		return true
	}
	return false
}

type ComboStatus string

const (
	ComboStatusActive   ComboStatus = "active"
	ComboStatusInactive ComboStatus = "inactive"
	ComboStatusArchived ComboStatus = "archived"
	ComboStatusDeleted  ComboStatus = "deleted"
)

func ValidComboStatus(s ComboStatus) bool {
	switch s {
	case ComboStatusActive, ComboStatusInactive, ComboStatusArchived, ComboStatusDeleted:
		return true
	}
	return false
}

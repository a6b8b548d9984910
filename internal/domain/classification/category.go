package classification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a hierarchical classification node items are tagged with.
type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug string    `gorm:"column:slug;not null;uniqueIndex:idx_category_slug" json:"slug"`
	Name string    `gorm:"column:name;not null" json:"name"`

	// TranslatedName is filled by the translation collaborator; empty when untranslated.
	TranslatedName string `gorm:"column:translated_name" json:"translated_name,omitempty"`

	ParentID *uuid.UUID `gorm:"type:uuid;column:parent_id;index" json:"parent_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Category) TableName() string { return "category" }

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// DisplayName prefers the translated name.
func (c *Category) DisplayName() string {
	if c == nil {
		return ""
	}
	if v := strings.TrimSpace(c.TranslatedName); v != "" {
		return v
	}
	return c.Name
}

// Scope is a flat, named collection of items (for example a curriculum set).
type Scope struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug           string    `gorm:"column:slug;not null;uniqueIndex:idx_scope_slug" json:"slug"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	TranslatedName string    `gorm:"column:translated_name" json:"translated_name,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Scope) TableName() string { return "scope" }

func (s *Scope) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Scope) DisplayName() string {
	if s == nil {
		return ""
	}
	if v := strings.TrimSpace(s.TranslatedName); v != "" {
		return v
	}
	return s.Name
}

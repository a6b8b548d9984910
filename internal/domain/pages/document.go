package pages

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// RoleGenerated documents carry a generator key and are owned by reconciliation.
	RoleGenerated = "generated"
	// RoleContainer documents are parent paths (for example "/flashcards").
	RoleContainer = "container"
)

const (
	StatusActive      = "active"
	StatusSoftDeleted = "soft_deleted"
)

// KeyAttrs is the persisted form of a generator key: a kind plus one or two node ids.
type KeyAttrs struct {
	Kind       string
	CategoryID *uuid.UUID
	ScopeID    *uuid.UUID
}

// ManagedDocument is a generated page. Lifecycle is carried by DeletedAt: a set DeletedAt
// means soft-deleted (retained as history, restorable), purge is a hard delete.
//
// IDs are sequential so "lowest id wins" is a stable tie-break when collapsing duplicates.
type ManagedDocument struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Role string `gorm:"column:role;not null;index" json:"role"`

	KeyKind       string     `gorm:"column:key_kind;index:idx_managed_document_key,priority:1" json:"key_kind,omitempty"`
	KeyCategoryID *uuid.UUID `gorm:"type:uuid;column:key_category_id;index:idx_managed_document_key,priority:2" json:"key_category_id,omitempty"`
	KeyScopeID    *uuid.UUID `gorm:"type:uuid;column:key_scope_id;index:idx_managed_document_key,priority:3" json:"key_scope_id,omitempty"`

	ParentID *uint64 `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	Slug     string  `gorm:"column:slug;not null" json:"slug"`
	Path     string  `gorm:"column:path;not null;index" json:"path"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Content     string `gorm:"column:content;type:text" json:"content"`
	ContentHash string `gorm:"column:content_hash" json:"content_hash"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ManagedDocument) TableName() string { return "managed_document" }

func (d *ManagedDocument) Status() string {
	if d == nil {
		return ""
	}
	if d.DeletedAt.Valid {
		return StatusSoftDeleted
	}
	return StatusActive
}

func (d *ManagedDocument) Attrs() KeyAttrs {
	return KeyAttrs{Kind: d.KeyKind, CategoryID: d.KeyCategoryID, ScopeID: d.KeyScopeID}
}

func (d *ManagedDocument) SameParent(parentID *uint64) bool {
	switch {
	case d.ParentID == nil && parentID == nil:
		return true
	case d.ParentID == nil || parentID == nil:
		return false
	}
	return *d.ParentID == *parentID
}

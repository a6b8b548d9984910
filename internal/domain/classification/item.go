package classification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ItemStatusPublished = "published"
	ItemStatusDraft     = "draft"
)

// Item is a tagged content record (a flashcard). Only published, non-deleted items count.
type Item struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string    `gorm:"column:title;not null" json:"title"`
	ImageURL string    `gorm:"column:image_url" json:"image_url,omitempty"`
	AudioURL string    `gorm:"column:audio_url" json:"audio_url,omitempty"`
	Status   string    `gorm:"column:status;not null;default:'published';index" json:"status"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Item) TableName() string { return "item" }

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if strings.TrimSpace(i.Status) == "" {
		i.Status = ItemStatusPublished
	}
	return nil
}

func (i *Item) ImageCapable() bool { return i != nil && strings.TrimSpace(i.ImageURL) != "" }
func (i *Item) AudioCapable() bool { return i != nil && strings.TrimSpace(i.AudioURL) != "" }

type ItemCategory struct {
	ItemID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"item_id"`
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"category_id"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ItemCategory) TableName() string { return "item_category" }

type ItemScope struct {
	ItemID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"item_id"`
	ScopeID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"scope_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ItemScope) TableName() string { return "item_scope" }

// ItemTags is an item's capability flags together with its raw (not deepest-resolved) tags.
type ItemTags struct {
	ItemID       uuid.UUID
	ImageCapable bool
	AudioCapable bool
	CategoryIDs  []uuid.UUID
	ScopeIDs     []uuid.UUID
}

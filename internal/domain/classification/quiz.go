package classification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MediaText  = "text"
	MediaImage = "image"
	MediaAudio = "audio"
)

// QuizConfig stores the prompt/answer pairing a category's quiz is played with.
type QuizConfig struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_config_category" json:"category_id"`
	PromptType string    `gorm:"column:prompt_type;not null" json:"prompt_type"`
	AnswerType string    `gorm:"column:answer_type;not null" json:"answer_type"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizConfig) TableName() string { return "quiz_config" }

func (q *QuizConfig) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (q *QuizConfig) Spec() QuizSpec {
	if q == nil {
		return StrictQuizSpec()
	}
	return QuizSpec{PromptType: normalizeMedia(q.PromptType), AnswerType: normalizeMedia(q.AnswerType)}
}

// QuizSpec is the derived view of a quiz configuration used by eligibility.
type QuizSpec struct {
	PromptType string `json:"prompt_type"`
	AnswerType string `json:"answer_type"`
}

// StrictQuizSpec is assumed when no configuration is available: image prompts, so only
// image-capable items can qualify.
func StrictQuizSpec() QuizSpec {
	return QuizSpec{PromptType: MediaImage, AnswerType: MediaText}
}

func (s QuizSpec) RequiresImage() bool {
	return s.PromptType == MediaImage || s.AnswerType == MediaImage
}

func (s QuizSpec) RequiresAudio() bool {
	return s.PromptType == MediaAudio || s.AnswerType == MediaAudio
}

// WellFormed reports whether the pairing is playable: both sides known and distinct.
func (s QuizSpec) WellFormed() bool {
	if !knownMedia(s.PromptType) || !knownMedia(s.AnswerType) {
		return false
	}
	return s.PromptType != s.AnswerType
}

func knownMedia(v string) bool {
	switch v {
	case MediaText, MediaImage, MediaAudio:
		return true
	}
	return false
}

func normalizeMedia(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/domain/classification"
)

func SeedCategory(tb testing.TB, db *gorm.DB, slug, name string, parentID *uuid.UUID) *types.Category {
	tb.Helper()
	c := &types.Category{ID: uuid.New(), Slug: slug, Name: name, ParentID: parentID}
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedScope(tb testing.TB, db *gorm.DB, slug, name string) *types.Scope {
	tb.Helper()
	s := &types.Scope{ID: uuid.New(), Slug: slug, Name: name}
	if err := db.Create(s).Error; err != nil {
		tb.Fatalf("seed scope: %v", err)
	}
	return s
}

// SeedItem creates a published item tagged with the given categories and scopes.
// withImage controls whether it is image-capable.
func SeedItem(tb testing.TB, db *gorm.DB, title string, withImage bool, categoryIDs, scopeIDs []uuid.UUID) *types.Item {
	tb.Helper()
	it := &types.Item{ID: uuid.New(), Title: title, Status: classification.ItemStatusPublished}
	if withImage {
		it.ImageURL = "https://cdn.example.test/" + it.ID.String() + ".png"
	}
	if err := db.Create(it).Error; err != nil {
		tb.Fatalf("seed item: %v", err)
	}
	for _, id := range categoryIDs {
		if err := db.Create(&types.ItemCategory{ItemID: it.ID, CategoryID: id}).Error; err != nil {
			tb.Fatalf("seed item category: %v", err)
		}
	}
	for _, id := range scopeIDs {
		if err := db.Create(&types.ItemScope{ItemID: it.ID, ScopeID: id}).Error; err != nil {
			tb.Fatalf("seed item scope: %v", err)
		}
	}
	return it
}

func SeedItems(tb testing.TB, db *gorm.DB, n int, withImage bool, categoryIDs, scopeIDs []uuid.UUID) []*types.Item {
	tb.Helper()
	out := make([]*types.Item, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, SeedItem(tb, db, "item", withImage, categoryIDs, scopeIDs))
	}
	return out
}

func SeedQuizConfig(tb testing.TB, db *gorm.DB, categoryID uuid.UUID, prompt, answer string) *types.QuizConfig {
	tb.Helper()
	q := &types.QuizConfig{ID: uuid.New(), CategoryID: categoryID, PromptType: prompt, AnswerType: answer}
	if err := db.Create(q).Error; err != nil {
		tb.Fatalf("seed quiz config: %v", err)
	}
	return q
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrUint64(v uint64) *uint64 { return &v }

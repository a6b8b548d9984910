package domain

import (
	"github.com/yungbote/quizpages/internal/domain/classification"
	"github.com/yungbote/quizpages/internal/domain/pages"
)

type Category = classification.Category
type Scope = classification.Scope
type Item = classification.Item
type ItemCategory = classification.ItemCategory
type ItemScope = classification.ItemScope
type ItemTags = classification.ItemTags
type QuizConfig = classification.QuizConfig
type QuizSpec = classification.QuizSpec
type CategoryTree = classification.Tree

type ManagedDocument = pages.ManagedDocument
type KeyAttrs = pages.KeyAttrs
type PageSetting = pages.PageSetting

const (
	RoleGenerated = pages.RoleGenerated
	RoleContainer = pages.RoleContainer

	StatusActive      = pages.StatusActive
	StatusSoftDeleted = pages.StatusSoftDeleted

	SettingEnabledScopes = pages.SettingEnabledScopes
	SettingLastFullSync  = pages.SettingLastFullSync
)

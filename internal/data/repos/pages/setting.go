package pages

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type SettingRepo interface {
	// Get decodes the stored JSON value into out. ok is false when the key is unset.
	Get(dbc dbctx.Context, key string, out interface{}) (bool, error)
	Put(dbc dbctx.Context, key string, value interface{}) error
}

type settingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSettingRepo(db *gorm.DB, baseLog *logger.Logger) SettingRepo {
	return &settingRepo{db: db, log: baseLog.With("repo", "SettingRepo")}
}

func (r *settingRepo) Get(dbc dbctx.Context, key string, out interface{}) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, nil
	}
	var row types.PageSetting
	err := dbc.DB(r.db).
		Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return false, perrors.MapStore(err)
	}
	if row.Key == "" || len(row.Value) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(row.Value, out); err != nil {
		return false, fmt.Errorf("decode setting %q: %w", key, err)
	}
	return true, nil
}

func (r *settingRepo) Put(dbc dbctx.Context, key string, value interface{}) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("setting key: %w", perrors.ErrInvalidArgument)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}
	row := &types.PageSetting{Key: key, Value: datatypes.JSON(raw)}
	err = dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return perrors.MapStore(fmt.Errorf("put setting %q: %w", key, err))
	}
	return nil
}

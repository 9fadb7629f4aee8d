package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gr8monk3ys/rategate/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store caches settings rows and serves read-mostly snapshots. It is
// constructed once at process start and injected; there is no package-level
// state, so tests reset by building a fresh Store.
type Store struct {
	db *gorm.DB

	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// NewStore constructs a Store over the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:     db,
		values: make(map[string]json.RawMessage),
	}
}

// Load reads all settings rows into the cache, replacing prior contents.
func (s *Store) Load(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("settings store: not initialized")
	}
	var rows []models.Setting
	if errFind := s.db.WithContext(ctx).Find(&rows).Error; errFind != nil {
		return fmt.Errorf("settings store: load: %w", errFind)
	}
	next := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		if len(row.Value) == 0 {
			continue
		}
		next[row.Key] = json.RawMessage(row.Value)
	}
	s.mu.Lock()
	s.values = next
	s.mu.Unlock()
	return nil
}

// Value returns the cached raw value for key.
func (s *Store) Value(key string) (json.RawMessage, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.values[key]
	return raw, ok
}

// Set upserts a settings row and refreshes the cache entry.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("settings store: not initialized")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("settings store: key is empty")
	}
	payload, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("settings store: marshal %s: %w", key, errMarshal)
	}

	now := time.Now().UTC()
	record := models.Setting{
		Key:       key,
		Value:     datatypes.JSON(payload),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errUpsert := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error; errUpsert != nil {
		return fmt.Errorf("settings store: upsert %s: %w", key, errUpsert)
	}

	s.mu.Lock()
	s.values[key] = json.RawMessage(payload)
	s.mu.Unlock()
	return nil
}

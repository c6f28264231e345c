package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkrill/glossa/internal/language"
	"github.com/mkrill/glossa/internal/translator"
)

const (
	defaultListLimit = 25
	maxListLimit     = 200
)

// Record is one persisted translation result keyed by its cache key.
type Record struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	RecordUUID string    `gorm:"column:record_uuid;type:uuid;uniqueIndex;not null"`
	CacheKey   string    `gorm:"column:cache_key;size:64;uniqueIndex;not null"`
	Mode       string    `gorm:"size:16;not null;index"`
	SourceLang string    `gorm:"size:16;not null"`
	TargetLang string    `gorm:"size:16;not null;index"`
	Tone       string    `gorm:"size:32;not null"`
	RerunStyle string    `gorm:"size:16;not null;default:''"`
	SourceText string    `gorm:"type:text;not null"`
	ResultJSON string    `gorm:"column:result_json;type:jsonb;not null"`
	Provider   string    `gorm:"size:64;not null"`
	Model      string    `gorm:"size:128;not null;default:''"`
	LatencyMs  int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

func (Record) TableName() string {
	return "translations"
}

// Entry is a history row shaped for API/CLI output.
type Entry struct {
	RecordUUID string             `json:"record_uuid"`
	CacheKey   string             `json:"cache_key"`
	Mode       string             `json:"mode"`
	SourceLang string             `json:"source_lang"`
	TargetLang string             `json:"target_lang"`
	Tone       string             `json:"tone"`
	RerunStyle string             `json:"rerun_style,omitempty"`
	SourceText string             `json:"source_text"`
	Result     *translator.Result `json:"result"`
	Provider   string             `json:"provider"`
	Model      string             `json:"model,omitempty"`
	LatencyMs  int64              `json:"latency_ms"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ListFilter narrows a history listing.
type ListFilter struct {
	Mode       string
	TargetLang string
	Limit      int
}

// Store implements the pipeline's cache/history gateway on Postgres.
type Store struct {
	db *gorm.DB
}

// Open connects, configures the pool, and migrates the translations table.
func Open(ctx context.Context, databaseURL string, minConns, maxConns int32) (*Store, error) {
	dsn := strings.TrimSpace(databaseURL)
	if dsn == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("access database pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(int(minConns))
	sqlDB.SetMaxOpenConns(int(maxConns))
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := gdb.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("auto-migrate translations: %w", err)
	}

	return &Store{db: gdb}, nil
}

// Get returns the cached result for a key, or (nil, nil) on a miss.
func (s *Store) Get(ctx context.Context, cacheKey string) (*translator.Result, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("history store is not initialized")
	}

	var record Record
	err := s.db.WithContext(ctx).Where("cache_key = ?", cacheKey).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query translation cache: %w", err)
	}

	result, err := decodeResult(record.ResultJSON)
	if err != nil {
		return nil, fmt.Errorf("decode cached result for key %s: %w", cacheKey, err)
	}
	return result, nil
}

// Put upserts a successful result under its cache key.
func (s *Store) Put(ctx context.Context, result *translator.Result, req translator.ResolvedRequest) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("history store is not initialized")
	}
	if result == nil {
		return fmt.Errorf("result is nil")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	record := Record{
		RecordUUID: uuid.NewString(),
		CacheKey:   result.CacheKey,
		Mode:       string(result.Mode),
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Tone:       string(req.Tone),
		RerunStyle: rerunStyle(req.Rerun),
		SourceText: req.Text,
		ResultJSON: string(payload),
		Provider:   result.Provider,
		Model:      result.Model,
		LatencyMs:  result.LatencyMs,
	}

	err = s.db.WithContext(ctx).
		Where("cache_key = ?", record.CacheKey).
		Assign(map[string]any{
			"result_json": record.ResultJSON,
			"provider":    record.Provider,
			"model":       record.Model,
			"latency_ms":  record.LatencyMs,
			"created_at":  time.Now().UTC(),
		}).
		FirstOrCreate(&record).Error
	if err != nil {
		return fmt.Errorf("upsert translation record: %w", err)
	}
	return nil
}

// List returns the most recent history entries matching the filter.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("history store is not initialized")
	}

	normalized := normalizeFilter(filter)

	query := s.db.WithContext(ctx).Model(&Record{}).Order("created_at DESC, id DESC").Limit(normalized.Limit)
	if normalized.Mode != "" {
		query = query.Where("mode = ?", normalized.Mode)
	}
	if normalized.TargetLang != "" {
		query = query.Where("target_lang = ?", normalized.TargetLang)
	}

	var records []Record
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query translation history: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entry, err := toEntry(record)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("history store is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("access database pool: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func normalizeFilter(filter ListFilter) ListFilter {
	out := ListFilter{
		Mode:       strings.ToLower(strings.TrimSpace(filter.Mode)),
		TargetLang: language.NormalizeCode(filter.TargetLang),
		Limit:      filter.Limit,
	}
	if out.Limit <= 0 {
		out.Limit = defaultListLimit
	}
	if out.Limit > maxListLimit {
		out.Limit = maxListLimit
	}
	return out
}

func toEntry(record Record) (Entry, error) {
	result, err := decodeResult(record.ResultJSON)
	if err != nil {
		return Entry{}, fmt.Errorf("decode history record %s: %w", record.RecordUUID, err)
	}
	return Entry{
		RecordUUID: record.RecordUUID,
		CacheKey:   record.CacheKey,
		Mode:       record.Mode,
		SourceLang: record.SourceLang,
		TargetLang: record.TargetLang,
		Tone:       record.Tone,
		RerunStyle: record.RerunStyle,
		SourceText: record.SourceText,
		Result:     result,
		Provider:   record.Provider,
		Model:      record.Model,
		LatencyMs:  record.LatencyMs,
		CreatedAt:  record.CreatedAt,
	}, nil
}

func decodeResult(raw string) (*translator.Result, error) {
	var result translator.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func rerunStyle(hint *translator.RerunHint) string {
	if hint == nil {
		return ""
	}
	return string(hint.Style)
}

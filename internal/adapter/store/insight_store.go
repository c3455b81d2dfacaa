package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fliptrack-intel/internal/domain/entity"
	"fliptrack-intel/internal/domain/repository"
)

// insightRow is the agent_insights table: append-only analysis runs. The
// JSON payloads travel as strings so a corrupt row can be detected and
// skipped on read instead of failing the scan.
type insightRow struct {
	InsightID        string          `gorm:"column:insight_id;primaryKey;size:64"`
	InsightType      string          `gorm:"column:insight_type;size:64;index:idx_agent_insights_type_time,priority:1"`
	GeneratedAt      time.Time       `gorm:"column:generated_at;index:idx_agent_insights_type_time,priority:2"`
	Data             string          `gorm:"column:data;type:jsonb"`
	Recommendations  string          `gorm:"column:recommendations;type:jsonb"`
	EstimatedSavings decimal.Decimal `gorm:"column:estimated_savings;type:decimal(10,2)"`
}

func (insightRow) TableName() string { return "agent_insights" }

// GormInsightStore persists analysis runs and serves the newest one back.
type GormInsightStore struct {
	db  *gorm.DB
	log *zap.Logger
}

var _ repository.InsightStore = (*GormInsightStore)(nil)

func NewGormInsightStore(db *gorm.DB, log *zap.Logger) *GormInsightStore {
	return &GormInsightStore{db: db, log: log}
}

// EnsureSchema creates the agent_insights table and its read index when
// missing. AutoMigrate is additive only, existing rows are never touched.
func (s *GormInsightStore) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&insightRow{}); err != nil {
		return fmt.Errorf("ensure agent_insights schema: %w", err)
	}
	return nil
}

func (s *GormInsightStore) Insert(ctx context.Context, record *entity.InsightRecord) error {
	data, err := json.Marshal(record.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	recommendations := record.Recommendations
	if recommendations == nil {
		recommendations = []entity.Recommendation{}
	}
	recs, err := json.Marshal(recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}

	row := insightRow{
		InsightID:        record.InsightID,
		InsightType:      record.InsightType,
		GeneratedAt:      record.GeneratedAt,
		Data:             string(data),
		Recommendations:  string(recs),
		EstimatedSavings: decimal.NewFromFloat(record.EstimatedSavings).Round(2),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: %v", entity.ErrPersistenceFailure, err)
	}
	return nil
}

// Latest returns the newest record of the given type, (nil, nil) when none
// exists. A row whose stored payload no longer parses also reads as absent:
// the pipeline can then regenerate instead of crashing, and the distinction
// is logged here.
func (s *GormInsightStore) Latest(ctx context.Context, insightType string) (*entity.InsightRecord, error) {
	var row insightRow
	err := s.db.WithContext(ctx).
		Where("insight_type = ?", insightType).
		Order("generated_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest insight: %w", err)
	}

	var analysis entity.VendorAnalysis
	if err := json.Unmarshal([]byte(row.Data), &analysis); err != nil {
		s.log.Warn("stored insight payload unreadable, treating as absent",
			zap.String("insight_id", row.InsightID), zap.Error(err))
		return nil, nil
	}

	var recommendations []entity.Recommendation
	if row.Recommendations != "" {
		if err := json.Unmarshal([]byte(row.Recommendations), &recommendations); err != nil {
			s.log.Warn("stored recommendations unreadable, using analysis copy",
				zap.String("insight_id", row.InsightID), zap.Error(err))
			recommendations = analysis.Recommendations
		}
	}

	savings, _ := row.EstimatedSavings.Round(2).Float64()
	return &entity.InsightRecord{
		InsightID:        row.InsightID,
		InsightType:      row.InsightType,
		GeneratedAt:      row.GeneratedAt,
		Analysis:         &analysis,
		Recommendations:  recommendations,
		EstimatedSavings: savings,
	}, nil
}

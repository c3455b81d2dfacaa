package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fliptrack-intel/internal/domain/entity"
)

var insightColumns = []string{"insight_id", "insight_type", "generated_at", "data", "recommendations", "estimated_savings"}

func sampleAnalysis() *entity.VendorAnalysis {
	return &entity.VendorAnalysis{
		Opportunities: []entity.Opportunity{
			{Type: entity.OpportunityVolumeNegotiation, VendorOrCategory: "Acme", EstimatedSavings: 750, Action: "negotiate"},
		},
		Recommendations: []entity.Recommendation{
			{Priority: entity.PriorityHigh, Action: "consolidate", ExpectedImpact: "$750 saved", Effort: entity.EffortMedium},
		},
		KeyInsights:           []string{"spend is concentrated"},
		TotalEstimatedSavings: 750,
		InputHash:             "abc123",
	}
}

func TestInsertWritesRow(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	mock.ExpectExec(`INSERT INTO "agent_insights"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := NewGormInsightStore(gormDB, zap.NewNop())
	record := &entity.InsightRecord{
		InsightID:        "VENDOR-20240110-120000-abcd1234",
		InsightType:      entity.InsightTypeVendorIntelligence,
		GeneratedAt:      time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		Analysis:         sampleAnalysis(),
		Recommendations:  sampleAnalysis().Recommendations,
		EstimatedSavings: 750,
	}

	require.NoError(t, s.Insert(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertWrapsDatabaseError(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	mock.ExpectExec(`INSERT INTO "agent_insights"`).
		WillReturnError(errors.New("disk full"))

	s := NewGormInsightStore(gormDB, zap.NewNop())
	err := s.Insert(context.Background(), &entity.InsightRecord{
		InsightID:   "VENDOR-x",
		InsightType: entity.InsightTypeVendorIntelligence,
		GeneratedAt: time.Now().UTC(),
		Analysis:    sampleAnalysis(),
	})

	assert.ErrorIs(t, err, entity.ErrPersistenceFailure)
	assert.ErrorContains(t, err, "disk full")
}

func TestLatestReturnsNewestRecord(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	analysis := sampleAnalysis()
	data, err := json.Marshal(analysis)
	require.NoError(t, err)
	recs, err := json.Marshal(analysis.Recommendations)
	require.NoError(t, err)

	generated := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(insightColumns).
		AddRow("VENDOR-20240201-093000-aaaa1111", entity.InsightTypeVendorIntelligence, generated, string(data), string(recs), "750.00")
	mock.ExpectQuery(`SELECT \* FROM "agent_insights" WHERE insight_type = \$1 ORDER BY generated_at DESC`).
		WillReturnRows(rows)

	s := NewGormInsightStore(gormDB, zap.NewNop())
	record, err := s.Latest(context.Background(), entity.InsightTypeVendorIntelligence)

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "VENDOR-20240201-093000-aaaa1111", record.InsightID)
	assert.Equal(t, generated, record.GeneratedAt)
	assert.Equal(t, 750.0, record.EstimatedSavings)
	require.NotNil(t, record.Analysis)
	assert.Equal(t, "abc123", record.Analysis.InputHash)
	require.Len(t, record.Recommendations, 1)
	assert.Equal(t, entity.PriorityHigh, record.Recommendations[0].Priority)
}

func TestLatestNoRecords(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "agent_insights"`).
		WillReturnRows(sqlmock.NewRows(insightColumns))

	s := NewGormInsightStore(gormDB, zap.NewNop())
	record, err := s.Latest(context.Background(), entity.InsightTypeVendorIntelligence)

	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestLatestQueryFailureIsAnError(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "agent_insights"`).
		WillReturnError(errors.New("broken pipe"))

	s := NewGormInsightStore(gormDB, zap.NewNop())
	_, err := s.Latest(context.Background(), entity.InsightTypeVendorIntelligence)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query latest insight")
}

func TestLatestUnreadablePayloadReadsAsAbsent(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows(insightColumns).
		AddRow("VENDOR-bad", entity.InsightTypeVendorIntelligence, time.Now().UTC(), "{truncated", "[]", "10.00")
	mock.ExpectQuery(`SELECT \* FROM "agent_insights"`).
		WillReturnRows(rows)

	s := NewGormInsightStore(gormDB, zap.NewNop())
	record, err := s.Latest(context.Background(), entity.InsightTypeVendorIntelligence)

	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestLatestBadRecommendationsFallBackToAnalysisCopy(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	analysis := sampleAnalysis()
	data, err := json.Marshal(analysis)
	require.NoError(t, err)

	rows := sqlmock.NewRows(insightColumns).
		AddRow("VENDOR-x", entity.InsightTypeVendorIntelligence, time.Now().UTC(), string(data), "not json", "750.00")
	mock.ExpectQuery(`SELECT \* FROM "agent_insights"`).
		WillReturnRows(rows)

	s := NewGormInsightStore(gormDB, zap.NewNop())
	record, err := s.Latest(context.Background(), entity.InsightTypeVendorIntelligence)

	require.NoError(t, err)
	require.NotNil(t, record)
	require.Len(t, record.Recommendations, 1)
	assert.Equal(t, "consolidate", record.Recommendations[0].Action)
}

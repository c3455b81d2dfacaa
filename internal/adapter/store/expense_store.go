package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fliptrack-intel/internal/domain/entity"
	"fliptrack-intel/internal/domain/repository"
)

// expenseRow mirrors the expenses table owned by the main application.
// This service only ever reads it.
type expenseRow struct {
	VendorName  *string   `gorm:"column:vendor_name"`
	Category    *string   `gorm:"column:category"`
	Amount      float64   `gorm:"column:amount"`
	ProjectID   *string   `gorm:"column:project_id"`
	ExpenseDate time.Time `gorm:"column:expense_date"`
}

func (expenseRow) TableName() string { return "expenses" }

// GormExpenseSource reads expense rows for aggregation. Rows without an
// amount are excluded at the query level: they cannot contribute to spend.
type GormExpenseSource struct {
	db *gorm.DB
}

var _ repository.ExpenseSource = (*GormExpenseSource)(nil)

func NewGormExpenseSource(db *gorm.DB) *GormExpenseSource {
	return &GormExpenseSource{db: db}
}

func (s *GormExpenseSource) FetchAll(ctx context.Context) ([]entity.ExpenseRecord, error) {
	var rows []expenseRow
	err := s.db.WithContext(ctx).
		Select("vendor_name", "category", "amount", "project_id", "expense_date").
		Where("amount IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}

	records := make([]entity.ExpenseRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, entity.ExpenseRecord{
			Vendor:    deref(row.VendorName),
			Category:  deref(row.Category),
			Amount:    row.Amount,
			ProjectID: deref(row.ProjectID),
			Date:      row.ExpenseDate,
		})
	}
	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

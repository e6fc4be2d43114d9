package database

import (
	"context"

	"gorm.io/gorm"
)

// OpLog records every executed operation outcome for diagnostics.
type OpLog struct {
	db *gorm.DB
}

// NewOpLog creates an OpLog on the given connection.
func NewOpLog(db *gorm.DB) *OpLog {
	return &OpLog{db: db}
}

// Record appends one outcome row.
func (l *OpLog) Record(ctx context.Context, rec OperationRecord) error {
	return l.db.WithContext(ctx).Create(&rec).Error
}

// Failures returns the failed records of a run, most recent first.
func (l *OpLog) Failures(ctx context.Context, runID string) ([]OperationRecord, error) {
	var recs []OperationRecord
	err := l.db.WithContext(ctx).
		Where("run_id = ? AND outcome = ?", runID, "failed").
		Order("executed_at DESC").
		Find(&recs).Error
	return recs, err
}

// CountByOutcome returns outcome -> row count across all runs.
func (l *OpLog) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Outcome string
		N       int64
	}
	var rows []row
	err := l.db.WithContext(ctx).
		Model(&OperationRecord{}).
		Select("outcome, count(*) as n").
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.N
	}
	return counts, nil
}

// Clear removes all recorded outcomes.
func (l *OpLog) Clear(ctx context.Context) error {
	return l.db.WithContext(ctx).Where("1 = 1").Delete(&OperationRecord{}).Error
}

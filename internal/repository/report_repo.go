package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/db"
)

// ReportRepository provides data access for the moderation report queue.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

// Create appends a report with status "new". Multiple reports per chat are
// allowed.
func (r *ReportRepository) Create(ctx context.Context, report *db.Report) error {
	report.Status = db.ReportStatusNew
	return r.db.WithContext(ctx).Create(report).Error
}

// ByID fetches a report by id.
func (r *ReportRepository) ByID(ctx context.Context, id int64) (*db.Report, error) {
	var rep db.Report
	if err := r.db.WithContext(ctx).First(&rep, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListByStatus lists reports newest first; empty status means all.
func (r *ReportRepository) ListByStatus(ctx context.Context, status string) ([]db.Report, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var reports []db.Report
	err := query.Find(&reports).Error
	return reports, err
}

// Resolve moves a report to resolved. The transition is one-way and
// idempotent: resolving an already-resolved report changes nothing.
func (r *ReportRepository) Resolve(ctx context.Context, id int64) error {
	// existence check first so a missing id surfaces as NotFound rather
	// than a silent zero-row update
	if _, err := r.ByID(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&db.Report{}).
		Where("id = ?", id).
		Update("status", db.ReportStatusResolved).Error
}

// CountByStatus returns report totals for the stats view.
func (r *ReportRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Report{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

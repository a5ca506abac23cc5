package app

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/lifecycle"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OperationLogRetention is how long operation log rows are kept.
const OperationLogRetention = 365 * 24 * time.Hour

// AuditRecorder persists lifecycle notifications as operation log rows.
type AuditRecorder struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewAuditRecorder(db *gorm.DB, node *snowflake.Node) *AuditRecorder {
	return &AuditRecorder{db: db, node: node}
}

// Attach records every notification published on n.
func (r *AuditRecorder) Attach(n *lifecycle.Notifier) error {
	return n.Subscribe(r.Record)
}

// Record stores one notification. Storage failures are logged, never
// propagated to the workflow that raised the notification.
func (r *AuditRecorder) Record(note lifecycle.Notification) {
	row := domain.WaOperationLog{
		ID:           r.node.Generate().Int64(),
		LocationID:   note.LocationID,
		Action:       note.Action,
		InstanceName: note.InstanceName,
		Level:        string(note.Level),
		Code:         note.Code,
		Message:      note.Message,
		OptTime:      note.Time,
	}
	if row.OptTime.IsZero() {
		row.OptTime = time.Now()
	}
	if err := r.db.Create(&row).Error; err != nil {
		zap.L().Error("app: failed to write operation log",
			zap.String("location_id", note.LocationID),
			zap.String("action", note.Action),
			zap.Error(err))
	}
}

// Recent returns the newest rows of locationID, all tenants when empty.
func (r *AuditRecorder) Recent(ctx context.Context, locationID string, limit int) ([]domain.WaOperationLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var rows []domain.WaOperationLog
	q := r.db.WithContext(ctx).Order("opt_time desc").Order("id desc").Limit(limit)
	if locationID != "" {
		q = q.Where("location_id = ?", locationID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Purge deletes rows older than before and returns how many went.
func (r *AuditRecorder) Purge(before time.Time) (int64, error) {
	res := r.db.Where("opt_time < ?", before).Delete(&domain.WaOperationLog{})
	return res.RowsAffected, res.Error
}

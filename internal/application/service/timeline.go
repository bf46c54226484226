package service

import (
	"context"
	"fmt"

	"github.com/edbgroup/paperflow/internal/application/port"
	"github.com/edbgroup/paperflow/internal/domain/entity"
	"github.com/edbgroup/paperflow/internal/domain/workflow"
)

// TimelineService reads a record's audit history for display
type TimelineService interface {
	GetTimeline(ctx context.Context, recordID int64, ascending bool) ([]*entity.AuditEntry, error)
}

type timelineServiceImpl struct {
	recordRepo port.RecordRepository
	auditRepo  port.AuditRepository
	logger     Logger
}

// NewTimelineService creates a new TimelineService
func NewTimelineService(recordRepo port.RecordRepository, auditRepo port.AuditRepository, logger Logger) TimelineService {
	return &timelineServiceImpl{
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

// GetTimeline returns the audit entries for a record ordered by timestamp.
func (s *timelineServiceImpl) GetTimeline(ctx context.Context, recordID int64, ascending bool) ([]*entity.AuditEntry, error) {
	rec, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		s.logger.Error("Failed to load record for timeline", "error", err, "record_id", recordID)
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: record %d", workflow.ErrNotFound, recordID)
	}

	entries, err := s.auditRepo.ListByRecordID(ctx, recordID, ascending)
	if err != nil {
		s.logger.Error("Failed to load timeline", "error", err, "record_id", recordID)
		return nil, err
	}
	return entries, nil
}

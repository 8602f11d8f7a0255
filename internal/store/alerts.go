package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"av-maintenance-backend/internal/model"
)

// RaiseAlertIfAbsent creates an alert unless an unresolved alert with the
// same (facility, equipment, schedule, alert_type) key already exists.
// Returns true when a new alert was created.
//
// The check-before-create keeps sweeps idempotent; the partial unique index
// installed by db.ApplyAlertDedupIndex closes the remaining race between
// concurrent writers, with a duplicate-key conflict treated as benign
// "already exists".
func (s *gormStore) RaiseAlertIfAbsent(ctx context.Context, in AlertInput) (bool, error) {
	q := s.db.WithContext(ctx).Model(&model.Alert{}).
		Where("alert_type = ? AND is_resolved = ?", in.AlertType, false)
	q = whereSubject(q, "facility_id", in.FacilityID)
	q = whereSubject(q, "equipment_id", in.EquipmentID)
	q = whereSubject(q, "schedule_id", in.ScheduleID)

	var existing int64
	if err := q.Count(&existing).Error; err != nil {
		return false, fmt.Errorf("failed to check for existing alert: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	alert := model.Alert{
		FacilityID:  in.FacilityID,
		EquipmentID: in.EquipmentID,
		ScheduleID:  in.ScheduleID,
		AlertType:   in.AlertType,
		Priority:    in.Priority,
		Title:       in.Title,
		Message:     in.Message,
	}
	if alert.Priority == "" {
		alert.Priority = model.PriorityMedium
	}
	if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another writer won the race; the alert exists.
			return false, nil
		}
		return false, fmt.Errorf("failed to create alert: %w", err)
	}
	return true, nil
}

func whereSubject(q *gorm.DB, column string, id *int64) *gorm.DB {
	if id == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *id)
}

// CreateAlert persists a user-originated alert without dedup checking.
func (s *gormStore) CreateAlert(ctx context.Context, a *model.Alert) error {
	if a.Priority == "" {
		a.Priority = model.PriorityMedium
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (s *gormStore) GetAlert(ctx context.Context, id int64) (*model.Alert, error) {
	var a model.Alert
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *gormStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	q := s.db.WithContext(ctx).Model(&model.Alert{})
	if filter.FacilityID != nil {
		q = q.Where("facility_id = ?", *filter.FacilityID)
	}
	if filter.EquipmentID != nil {
		q = q.Where("equipment_id = ?", *filter.EquipmentID)
	}
	if filter.AlertType != "" {
		q = q.Where("alert_type = ?", filter.AlertType)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.IsRead != nil {
		q = q.Where("is_read = ?", *filter.IsRead)
	}
	if filter.IsResolved != nil {
		q = q.Where("is_resolved = ?", *filter.IsResolved)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	var alerts []model.Alert
	if err := q.Order("created_at DESC").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// UpdateAlert marks an alert read/resolved or adjusts its priority. Clearing
// is_resolved also clears the resolution fields.
func (s *gormStore) UpdateAlert(ctx context.Context, id int64, in UpdateAlertInput) (*model.Alert, error) {
	var alert model.Alert
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&alert, id).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		if in.IsRead != nil {
			alert.IsRead = *in.IsRead
			if alert.IsRead && alert.ReadAt == nil {
				alert.ReadAt = &now
			}
		}
		if in.IsResolved != nil {
			alert.IsResolved = *in.IsResolved
			if alert.IsResolved {
				alert.ResolvedAt = &now
				if in.ResolvedBy != nil {
					alert.ResolvedBy = *in.ResolvedBy
				}
			} else {
				alert.ResolvedAt = nil
				alert.ResolvedBy = ""
			}
		}
		if in.Priority != nil {
			alert.Priority = *in.Priority
		}
		return tx.Save(&alert).Error
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (s *gormStore) DeleteAlert(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Alert{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete alert %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAlertsRead marks the given alerts read, stamping read_at where unset.
func (s *gormStore) MarkAlertsRead(ctx context.Context, ids []int64) (int64, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&model.Alert{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"is_read": true, "read_at": gorm.Expr("COALESCE(read_at, ?)", now)})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark alerts read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ResolveAlerts resolves the given alerts in bulk.
func (s *gormStore) ResolveAlerts(ctx context.Context, ids []int64, resolvedBy string) (int64, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&model.Alert{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"is_resolved": true, "resolved_at": now, "resolved_by": resolvedBy})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to resolve alerts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// GenerateMaintenanceAlerts is the user-triggered counterpart of the sweep
// jobs: it raises due and overdue alerts for the current ledger state using
// the same dedup and escalation rules.
func (s *gormStore) GenerateMaintenanceAlerts(ctx context.Context, asOf time.Time) (*GenerateAlertsResult, error) {
	overdue, err := s.ListOverdue(ctx, asOf, nil)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.ListUpcoming(ctx, asOf, 7, nil)
	if err != nil {
		return nil, err
	}

	result := &GenerateAlertsResult{
		OverdueCount:  len(overdue),
		UpcomingCount: len(upcoming),
	}
	for i := range overdue {
		sched := &overdue[i]
		daysOverdue := model.DaysBetween(sched.ScheduledDate, asOf)
		created, err := s.RaiseAlertIfAbsent(ctx, OverdueAlertInput(sched, daysOverdue))
		if err != nil {
			return nil, err
		}
		if created {
			result.AlertsCreated++
		}
	}
	for i := range upcoming {
		sched := &upcoming[i]
		daysUntil := model.DaysBetween(asOf, sched.ScheduledDate)
		created, err := s.RaiseAlertIfAbsent(ctx, DueAlertInput(sched, daysUntil))
		if err != nil {
			return nil, err
		}
		if created {
			result.AlertsCreated++
		}
	}
	return result, nil
}

// OverdueAlertInput builds the canonical maintenance_overdue alert for a
// schedule. Shared by the sweep runner and GenerateMaintenanceAlerts so both
// paths hit the same dedup key and escalation.
func OverdueAlertInput(sched *model.MaintenanceSchedule, daysOverdue int) AlertInput {
	return AlertInput{
		FacilityID:  &sched.FacilityID,
		EquipmentID: &sched.EquipmentID,
		ScheduleID:  &sched.ID,
		AlertType:   model.AlertMaintenanceOverdue,
		Priority:    model.OverduePriority(daysOverdue),
		Title:       fmt.Sprintf("OVERDUE: %s", sched.Equipment.Name),
		Message: fmt.Sprintf("Maintenance for %s at %s is %d days overdue. Immediate attention required. Task: %s",
			sched.Equipment.Name, sched.Facility.Name, daysOverdue, sched.Task.Name),
	}
}

// DueAlertInput builds the canonical maintenance_due alert for a schedule.
func DueAlertInput(sched *model.MaintenanceSchedule, daysUntil int) AlertInput {
	return AlertInput{
		FacilityID:  &sched.FacilityID,
		EquipmentID: &sched.EquipmentID,
		ScheduleID:  &sched.ID,
		AlertType:   model.AlertMaintenanceDue,
		Priority:    model.DuePriority(daysUntil),
		Title:       fmt.Sprintf("Maintenance Due: %s", sched.Equipment.Name),
		Message: fmt.Sprintf("Maintenance for %s at %s is due in %d days. Task: %s",
			sched.Equipment.Name, sched.Facility.Name, daysUntil, sched.Task.Name),
	}
}

func (s *gormStore) GetAlertStats(ctx context.Context, facilityID *int64, asOf time.Time) (*AlertStats, error) {
	base := s.db.WithContext(ctx).Model(&model.Alert{})
	if facilityID != nil {
		base = base.Where("facility_id = ?", *facilityID)
	}
	base = base.Session(&gorm.Session{})

	stats := &AlertStats{
		ByPriority: make(map[string]int64),
		ByType:     make(map[string]int64),
	}
	if err := base.Count(&stats.TotalAlerts).Error; err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	if err := base.Where("is_read = ?", false).Count(&stats.UnreadAlerts).Error; err != nil {
		return nil, fmt.Errorf("failed to count unread alerts: %w", err)
	}
	if err := base.Where("is_resolved = ?", false).Count(&stats.UnresolvedAlerts).Error; err != nil {
		return nil, fmt.Errorf("failed to count unresolved alerts: %w", err)
	}
	weekAgo := asOf.AddDate(0, 0, -7)
	if err := base.Where("created_at >= ?", weekAgo).Count(&stats.RecentAlerts).Error; err != nil {
		return nil, fmt.Errorf("failed to count recent alerts: %w", err)
	}

	type aggRow struct {
		Key   string
		Count int64
	}
	var byPriority []aggRow
	if err := base.Where("is_resolved = ?", false).
		Select("priority as key, COUNT(*) as count").
		Group("priority").Scan(&byPriority).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate alerts by priority: %w", err)
	}
	for _, row := range byPriority {
		stats.ByPriority[row.Key] = row.Count
	}
	var byType []aggRow
	if err := base.Where("is_resolved = ?", false).
		Select("alert_type as key, COUNT(*) as count").
		Group("alert_type").Scan(&byType).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate alerts by type: %w", err)
	}
	for _, row := range byType {
		stats.ByType[row.Key] = row.Count
	}
	return stats, nil
}

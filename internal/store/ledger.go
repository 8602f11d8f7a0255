package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/recurrence"
)

// ErrAlreadyCompleted is returned when completing a schedule that is already
// completed or cancelled.
var ErrAlreadyCompleted = errors.New("schedule is already completed or cancelled")

// CreateSchedule validates the referenced facility, equipment and task, then
// writes a new ledger entry. For recurring schedules with a task frequency it
// precomputes the next occurrence date.
func (s *gormStore) CreateSchedule(ctx context.Context, in CreateScheduleInput) (*model.MaintenanceSchedule, error) {
	var task model.MaintenanceTask
	if err := s.db.WithContext(ctx).First(&task, in.TaskID).Error; err != nil {
		return nil, fmt.Errorf("maintenance task %d: %w", in.TaskID, err)
	}
	if err := s.db.WithContext(ctx).First(&model.Facility{}, in.FacilityID).Error; err != nil {
		return nil, fmt.Errorf("facility %d: %w", in.FacilityID, err)
	}
	if err := s.db.WithContext(ctx).First(&model.Equipment{}, in.EquipmentID).Error; err != nil {
		return nil, fmt.Errorf("equipment %d: %w", in.EquipmentID, err)
	}

	schedule := model.MaintenanceSchedule{
		FacilityID:               in.FacilityID,
		EquipmentID:              in.EquipmentID,
		TaskID:                   in.TaskID,
		ScheduledDate:            model.DateOf(in.ScheduledDate),
		Status:                   model.StatusScheduled,
		Priority:                 model.PriorityMedium,
		AssignedTechnician:       in.AssignedTechnician,
		EstimatedDurationMinutes: task.EstimatedDurationMinutes,
		Notes:                    in.Notes,
		IsRecurring:              true,
	}
	if in.Status != "" {
		schedule.Status = in.Status
	}
	if in.Priority != "" {
		schedule.Priority = in.Priority
	}
	if in.EstimatedDurationMinutes != nil {
		schedule.EstimatedDurationMinutes = *in.EstimatedDurationMinutes
	}
	if in.IsRecurring != nil {
		schedule.IsRecurring = *in.IsRecurring
	}
	if schedule.IsRecurring && task.FrequencyDays > 0 {
		next := schedule.ScheduledDate.AddDate(0, 0, task.FrequencyDays)
		schedule.NextOccurrence = &next
	}

	if err := s.db.WithContext(ctx).Create(&schedule).Error; err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return &schedule, nil
}

func (s *gormStore) GetSchedule(ctx context.Context, id int64) (*model.MaintenanceSchedule, error) {
	var schedule model.MaintenanceSchedule
	err := s.db.WithContext(ctx).
		Preload("Facility").Preload("Equipment").Preload("Task").
		First(&schedule, id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (s *gormStore) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]model.MaintenanceSchedule, error) {
	q := s.db.WithContext(ctx).Model(&model.MaintenanceSchedule{}).
		Preload("Facility").Preload("Equipment").Preload("Task")
	if filter.FacilityID != nil {
		q = q.Where("facility_id = ?", *filter.FacilityID)
	}
	if filter.EquipmentID != nil {
		q = q.Where("equipment_id = ?", *filter.EquipmentID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.MaintenanceType != "" {
		q = q.Select("maintenance_schedules.*").
			Joins("JOIN maintenance_tasks ON maintenance_tasks.id = maintenance_schedules.task_id").
			Where("maintenance_tasks.maintenance_type = ?", filter.MaintenanceType)
	}
	if filter.StartDate != nil {
		q = q.Where("scheduled_date >= ?", model.DateOf(*filter.StartDate))
	}
	if filter.EndDate != nil {
		q = q.Where("scheduled_date <= ?", model.DateOf(*filter.EndDate))
	}
	if filter.AssignedTechnician != "" {
		q = q.Where("assigned_technician LIKE ?", "%"+filter.AssignedTechnician+"%")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	order := "scheduled_date"
	if filter.NewestFirst {
		order = "scheduled_date DESC"
	}
	var schedules []model.MaintenanceSchedule
	if err := q.Order(order).Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// UpdateSchedule applies a partial update. A status change to completed runs
// the full completion cascade in the same transaction.
func (s *gormStore) UpdateSchedule(ctx context.Context, id int64, in UpdateScheduleInput) (*model.MaintenanceSchedule, error) {
	if in.Status != nil && *in.Status == model.StatusCompleted {
		completedBy := ""
		if in.CompletedBy != nil {
			completedBy = *in.CompletedBy
		}
		return s.CompleteSchedule(ctx, id, CompleteScheduleInput{
			CompletedBy:           completedBy,
			ActualDurationMinutes: in.ActualDurationMinutes,
			Cost:                  in.Cost,
			CompletedAt:           time.Now().UTC(),
		})
	}

	var schedule model.MaintenanceSchedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&schedule, id).Error; err != nil {
			return err
		}
		if in.ScheduledDate != nil {
			schedule.ScheduledDate = model.DateOf(*in.ScheduledDate)
		}
		if in.Status != nil {
			schedule.Status = *in.Status
		}
		if in.Priority != nil {
			schedule.Priority = *in.Priority
		}
		if in.AssignedTechnician != nil {
			schedule.AssignedTechnician = *in.AssignedTechnician
		}
		if in.Notes != nil {
			schedule.Notes = *in.Notes
		}
		if in.Cost != nil {
			schedule.Cost = in.Cost
		}
		if in.ActualDurationMinutes != nil {
			schedule.ActualDurationMinutes = in.ActualDurationMinutes
		}
		return tx.Save(&schedule).Error
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// CompleteSchedule is the one ledger mutation with cascading effects, all in
// a single transaction:
//
//  1. the schedule gets its completion fields and completed status;
//  2. the equipment's last_maintenance becomes the schedule's scheduled_date
//     (not the completion timestamp, so the planned cadence is preserved
//     even when work happens late) and next_maintenance is recomputed;
//  3. a recurring schedule chains exactly one successor dated at the prior
//     next_occurrence, itself carrying a freshly computed next occurrence.
func (s *gormStore) CompleteSchedule(ctx context.Context, id int64, in CompleteScheduleInput) (*model.MaintenanceSchedule, error) {
	var schedule model.MaintenanceSchedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Task").First(&schedule, id).Error; err != nil {
			return err
		}
		if schedule.Status == model.StatusCompleted || schedule.Status == model.StatusCancelled {
			return ErrAlreadyCompleted
		}

		completedAt := in.CompletedAt
		if completedAt.IsZero() {
			completedAt = time.Now().UTC()
		}
		schedule.Status = model.StatusCompleted
		schedule.CompletedDate = &completedAt
		schedule.CompletedBy = in.CompletedBy
		if schedule.CompletedBy == "" {
			schedule.CompletedBy = schedule.AssignedTechnician
		}
		schedule.ActualDurationMinutes = in.ActualDurationMinutes
		schedule.Cost = in.Cost
		if err := tx.Save(&schedule).Error; err != nil {
			return fmt.Errorf("failed to save completed schedule %d: %w", id, err)
		}

		var eq model.Equipment
		if err := tx.First(&eq, schedule.EquipmentID).Error; err != nil {
			return fmt.Errorf("equipment %d: %w", schedule.EquipmentID, err)
		}
		lastMaintenance := model.DateOf(schedule.ScheduledDate)
		eq.LastMaintenance = &lastMaintenance
		eq.HoursAtLastMaintenance = eq.OperatingHours
		eq.NextMaintenance = recurrence.ForEquipment(&eq)
		if err := tx.Save(&eq).Error; err != nil {
			return fmt.Errorf("failed to update equipment %d: %w", eq.ID, err)
		}

		if schedule.IsRecurring && schedule.NextOccurrence != nil {
			successor := model.MaintenanceSchedule{
				FacilityID:               schedule.FacilityID,
				EquipmentID:              schedule.EquipmentID,
				TaskID:                   schedule.TaskID,
				ScheduledDate:            model.DateOf(*schedule.NextOccurrence),
				Status:                   model.StatusScheduled,
				Priority:                 schedule.Priority,
				EstimatedDurationMinutes: schedule.EstimatedDurationMinutes,
				IsRecurring:              true,
			}
			if schedule.Task.FrequencyDays > 0 {
				next := successor.ScheduledDate.AddDate(0, 0, schedule.Task.FrequencyDays)
				successor.NextOccurrence = &next
			}
			if err := tx.Create(&successor).Error; err != nil {
				return fmt.Errorf("failed to chain next occurrence for schedule %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListOverdue returns schedules with scheduled_date < asOf still in scheduled
// status, most overdue first. "Overdue" is always this derived predicate;
// rows are never transitioned to an overdue status by the system.
func (s *gormStore) ListOverdue(ctx context.Context, asOf time.Time, facilityID *int64) ([]model.MaintenanceSchedule, error) {
	q := s.db.WithContext(ctx).Model(&model.MaintenanceSchedule{}).
		Preload("Facility").Preload("Equipment").Preload("Task").
		Where("scheduled_date < ? AND status = ?", model.DateOf(asOf), model.StatusScheduled)
	if facilityID != nil {
		q = q.Where("facility_id = ?", *facilityID)
	}
	var schedules []model.MaintenanceSchedule
	if err := q.Order("scheduled_date").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list overdue schedules: %w", err)
	}
	return schedules, nil
}

// ListUpcoming returns scheduled work due within horizonDays of asOf,
// earliest first.
func (s *gormStore) ListUpcoming(ctx context.Context, asOf time.Time, horizonDays int, facilityID *int64) ([]model.MaintenanceSchedule, error) {
	today := model.DateOf(asOf)
	cutoff := today.AddDate(0, 0, horizonDays)

	q := s.db.WithContext(ctx).Model(&model.MaintenanceSchedule{}).
		Preload("Facility").Preload("Equipment").Preload("Task").
		Where("scheduled_date >= ? AND scheduled_date <= ? AND status = ?",
			today, cutoff, model.StatusScheduled)
	if facilityID != nil {
		q = q.Where("facility_id = ?", *facilityID)
	}
	var schedules []model.MaintenanceSchedule
	if err := q.Order("scheduled_date").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list upcoming schedules: %w", err)
	}
	return schedules, nil
}

func (s *gormStore) CountSchedules(ctx context.Context, filter ScheduleCountFilter) (int64, error) {
	q := s.db.WithContext(ctx).Model(&model.MaintenanceSchedule{})
	if filter.FacilityID != nil {
		q = q.Where("facility_id = ?", *filter.FacilityID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		q = q.Where("scheduled_date >= ?", model.DateOf(*filter.StartDate))
	}
	if filter.EndDate != nil {
		q = q.Where("scheduled_date <= ?", model.DateOf(*filter.EndDate))
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return count, nil
}

func (s *gormStore) GetMaintenanceStats(ctx context.Context, facilityID *int64, daysBack int, asOf time.Time) (*MaintenanceStats, error) {
	base := s.db.WithContext(ctx).Model(&model.MaintenanceSchedule{})
	if facilityID != nil {
		base = base.Where("facility_id = ?", *facilityID)
	}
	base = base.Session(&gorm.Session{})

	stats := &MaintenanceStats{}
	if err := base.Count(&stats.TotalScheduled).Error; err != nil {
		return nil, fmt.Errorf("failed to count schedules: %w", err)
	}
	if err := base.Where("status = ?", model.StatusCompleted).
		Count(&stats.Completed).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed schedules: %w", err)
	}

	today := model.DateOf(asOf)
	if err := base.Where("scheduled_date < ? AND status = ?", today, model.StatusScheduled).
		Count(&stats.Overdue).Error; err != nil {
		return nil, fmt.Errorf("failed to count overdue schedules: %w", err)
	}
	if err := base.Where("scheduled_date >= ? AND scheduled_date <= ? AND status = ?",
		today, today.AddDate(0, 0, 7), model.StatusScheduled).
		Count(&stats.UpcomingWeek).Error; err != nil {
		return nil, fmt.Errorf("failed to count upcoming schedules: %w", err)
	}

	if daysBack > 0 {
		since := today.AddDate(0, 0, -daysBack)
		if err := base.Where("status = ? AND completed_date >= ?", model.StatusCompleted, since).
			Count(&stats.RecentCompleted).Error; err != nil {
			return nil, fmt.Errorf("failed to count recent completions: %w", err)
		}
	}

	if stats.TotalScheduled > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.TotalScheduled) * 100
	}

	var avg *float64
	if err := base.Where("status = ? AND actual_duration_minutes IS NOT NULL", model.StatusCompleted).
		Select("AVG(actual_duration_minutes)").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average durations: %w", err)
	}
	if avg != nil {
		stats.AvgDurationMinutes = *avg
	}
	return stats, nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/recurrence"
)

// --- Facilities ---

func (s *gormStore) CreateFacility(ctx context.Context, f *model.Facility) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}
	return nil
}

func (s *gormStore) GetFacility(ctx context.Context, id int64) (*model.Facility, error) {
	var f model.Facility
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *gormStore) ListFacilities(ctx context.Context, filter FacilityFilter) ([]model.Facility, error) {
	q := s.db.WithContext(ctx).Model(&model.Facility{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.City != "" {
		q = q.Where("city LIKE ?", "%"+filter.City+"%")
	}
	if filter.State != "" {
		q = q.Where("state LIKE ?", "%"+filter.State+"%")
	}
	var facilities []model.Facility
	if err := q.Find(&facilities).Error; err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return facilities, nil
}

func (s *gormStore) ListActiveFacilities(ctx context.Context) ([]model.Facility, error) {
	active := true
	return s.ListFacilities(ctx, FacilityFilter{IsActive: &active})
}

func (s *gormStore) UpdateFacility(ctx context.Context, f *model.Facility) error {
	if err := s.db.WithContext(ctx).Save(f).Error; err != nil {
		return fmt.Errorf("failed to update facility %d: %w", f.ID, err)
	}
	return nil
}

// DeactivateFacility soft-deletes a facility and deactivates its equipment.
func (s *gormStore) DeactivateFacility(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Facility{}).Where("id = ?", id).Update("is_active", false)
		if res.Error != nil {
			return fmt.Errorf("failed to deactivate facility %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&model.Equipment{}).Where("facility_id = ?", id).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate equipment for facility %d: %w", id, err)
		}
		return nil
	})
}

// --- Equipment ---

// CreateEquipment persists new equipment. If an installation date is present
// it seeds the maintenance baseline, mirroring how equipment enters service.
func (s *gormStore) CreateEquipment(ctx context.Context, eq *model.Equipment) error {
	if eq.LastMaintenance == nil && eq.InstallationDate != nil {
		d := model.DateOf(*eq.InstallationDate)
		eq.LastMaintenance = &d
	}
	eq.NextMaintenance = recurrence.ForEquipment(eq)
	if err := s.db.WithContext(ctx).Create(eq).Error; err != nil {
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	return nil
}

func (s *gormStore) GetEquipment(ctx context.Context, id int64) (*model.Equipment, error) {
	var eq model.Equipment
	if err := s.db.WithContext(ctx).Preload("Facility").First(&eq, id).Error; err != nil {
		return nil, err
	}
	return &eq, nil
}

func (s *gormStore) ListEquipment(ctx context.Context, filter EquipmentFilter) ([]model.Equipment, error) {
	q := s.db.WithContext(ctx).Model(&model.Equipment{})
	if filter.FacilityID != nil {
		q = q.Where("facility_id = ?", *filter.FacilityID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsCritical != nil {
		q = q.Where("is_critical = ?", *filter.IsCritical)
	}
	if filter.Manufacturer != "" {
		q = q.Where("manufacturer LIKE ?", "%"+filter.Manufacturer+"%")
	}
	if filter.MaintenanceDue {
		asOf := filter.AsOf
		if asOf.IsZero() {
			asOf = time.Now()
		}
		q = q.Where("next_maintenance IS NOT NULL AND next_maintenance <= ?", model.DateOf(asOf))
	}
	var equipment []model.Equipment
	if err := q.Find(&equipment).Error; err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return equipment, nil
}

// UpdateEquipment saves the row after recomputing the derived next_maintenance
// date, so policy or baseline edits can never leave a stale projection.
func (s *gormStore) UpdateEquipment(ctx context.Context, eq *model.Equipment) error {
	eq.NextMaintenance = recurrence.ForEquipment(eq)
	if err := s.db.WithContext(ctx).Save(eq).Error; err != nil {
		return fmt.Errorf("failed to update equipment %d: %w", eq.ID, err)
	}
	return nil
}

func (s *gormStore) DeactivateEquipment(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Model(&model.Equipment{}).Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate equipment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateEquipmentUsage records new usage counters and refreshes the derived
// due-date fields for usage-based equipment.
func (s *gormStore) UpdateEquipmentUsage(ctx context.Context, id int64, hours *float64, cycles *int) (*model.Equipment, error) {
	var eq model.Equipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&eq, id).Error; err != nil {
			return err
		}
		if hours != nil {
			eq.OperatingHours = *hours
		}
		if cycles != nil {
			eq.PowerCycles = *cycles
		}
		eq.NextMaintenance = recurrence.ForEquipment(&eq)
		return tx.Save(&eq).Error
	})
	if err != nil {
		return nil, err
	}
	return &eq, nil
}

// ListMaintenanceDue returns active equipment whose next maintenance falls
// within daysAhead of asOf, soonest first. Usage-based equipment is included
// when its usage threshold has been reached.
func (s *gormStore) ListMaintenanceDue(ctx context.Context, asOf time.Time, daysAhead int, facilityID *int64) ([]model.Equipment, error) {
	cutoff := model.DateOf(asOf).AddDate(0, 0, daysAhead)

	q := s.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("is_active = ?", true).
		Where("(next_maintenance IS NOT NULL AND next_maintenance <= ?) OR "+
			"(usage_based_maintenance = ? AND usage_threshold_hours > 0 AND operating_hours - hours_at_last_maintenance >= usage_threshold_hours)",
			cutoff, true)
	if facilityID != nil {
		q = q.Where("facility_id = ?", *facilityID)
	}

	var equipment []model.Equipment
	if err := q.Order("next_maintenance").Find(&equipment).Error; err != nil {
		return nil, fmt.Errorf("failed to list maintenance-due equipment: %w", err)
	}
	return equipment, nil
}

// ListExpiringWarranties returns active equipment whose warranty expires
// within horizonDays of asOf (and has not already expired).
func (s *gormStore) ListExpiringWarranties(ctx context.Context, asOf time.Time, horizonDays int) ([]model.Equipment, error) {
	today := model.DateOf(asOf)
	cutoff := today.AddDate(0, 0, horizonDays)

	var equipment []model.Equipment
	err := s.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("is_active = ?", true).
		Where("warranty_expiry IS NOT NULL AND warranty_expiry >= ? AND warranty_expiry <= ?", today, cutoff).
		Order("warranty_expiry").
		Find(&equipment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring warranties: %w", err)
	}
	return equipment, nil
}

func (s *gormStore) GetEquipmentStats(ctx context.Context, facilityID *int64, asOf time.Time) (*EquipmentStats, error) {
	base := s.db.WithContext(ctx).Model(&model.Equipment{}).Where("is_active = ?", true)
	if facilityID != nil {
		base = base.Where("facility_id = ?", *facilityID)
	}
	// Session marks the chain reusable so each aggregate below starts from
	// the same base conditions.
	base = base.Session(&gorm.Session{})

	stats := &EquipmentStats{
		ByCategory:     make(map[string]int64),
		ByManufacturer: make(map[string]int64),
	}
	if err := base.Count(&stats.TotalEquipment).Error; err != nil {
		return nil, fmt.Errorf("failed to count equipment: %w", err)
	}
	if err := base.Where("is_critical = ?", true).
		Count(&stats.CriticalEquipment).Error; err != nil {
		return nil, fmt.Errorf("failed to count critical equipment: %w", err)
	}

	type aggRow struct {
		Key   string
		Count int64
	}
	var byCategory []aggRow
	if err := base.Select("category as key, COUNT(*) as count").
		Group("category").Scan(&byCategory).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate by category: %w", err)
	}
	for _, row := range byCategory {
		stats.ByCategory[row.Key] = row.Count
	}

	var byManufacturer []aggRow
	if err := base.Select("COALESCE(NULLIF(manufacturer, ''), 'Unknown') as key, COUNT(*) as count").
		Group("key").Scan(&byManufacturer).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate by manufacturer: %w", err)
	}
	for _, row := range byManufacturer {
		stats.ByManufacturer[row.Key] = row.Count
	}

	today := model.DateOf(asOf)
	if err := base.Where("next_maintenance IS NOT NULL AND next_maintenance < ?", today).
		Count(&stats.MaintenanceOverdue).Error; err != nil {
		return nil, fmt.Errorf("failed to count overdue equipment: %w", err)
	}
	if err := base.Where("next_maintenance >= ? AND next_maintenance <= ?", today, today.AddDate(0, 0, 30)).
		Count(&stats.MaintenanceDueSoon).Error; err != nil {
		return nil, fmt.Errorf("failed to count due-soon equipment: %w", err)
	}

	return stats, nil
}

// --- Maintenance tasks ---

func (s *gormStore) CreateTask(ctx context.Context, t *model.MaintenanceTask) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create maintenance task: %w", err)
	}
	return nil
}

func (s *gormStore) GetTask(ctx context.Context, id int64) (*model.MaintenanceTask, error) {
	var t model.MaintenanceTask
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.MaintenanceTask, error) {
	q := s.db.WithContext(ctx).Model(&model.MaintenanceTask{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.MaintenanceType != "" {
		q = q.Where("maintenance_type = ?", filter.MaintenanceType)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	var tasks []model.MaintenanceTask
	if err := q.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list maintenance tasks: %w", err)
	}
	return tasks, nil
}

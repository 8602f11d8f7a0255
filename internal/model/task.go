package model

import (
	"encoding/json"
	"time"
)

// MaintenanceType classifies what kind of work a task describes.
type MaintenanceType string

const (
	TypePreventive  MaintenanceType = "preventive"
	TypeCorrective  MaintenanceType = "corrective"
	TypeInspection  MaintenanceType = "inspection"
	TypeCalibration MaintenanceType = "calibration"
	TypeCleaning    MaintenanceType = "cleaning"
)

// MaintenanceTypes lists every recognized maintenance type value.
var MaintenanceTypes = []MaintenanceType{
	TypePreventive, TypeCorrective, TypeInspection, TypeCalibration, TypeCleaning,
}

// Valid reports whether t is a recognized maintenance type.
func (t MaintenanceType) Valid() bool {
	for _, v := range MaintenanceTypes {
		if t == v {
			return true
		}
	}
	return false
}

// MaintenanceTask is a reusable template describing a unit of maintenance
// work. Tasks are treated as immutable once referenced by schedules: edits
// never retroactively change past schedules, which copy the fields they need.
type MaintenanceTask struct {
	ID                       int64             `gorm:"primaryKey" json:"id"`
	Name                     string            `gorm:"size:256;not null" json:"name"`
	Description              string            `gorm:"type:text" json:"description"`
	Category                 EquipmentCategory `gorm:"size:32;not null;index" json:"category"`
	MaintenanceType          MaintenanceType   `gorm:"size:32;not null" json:"maintenance_type"`
	EstimatedDurationMinutes int               `gorm:"not null;default:30" json:"estimated_duration_minutes"`
	FrequencyDays            int               `gorm:"not null;default:0" json:"frequency_days"`
	RequiredTools            string            `gorm:"type:text" json:"-"`
	RequiredSkills           string            `gorm:"type:text" json:"-"`
	ProcedureSteps           string            `gorm:"type:text" json:"-"`
	SafetyRequirements       string            `gorm:"type:text" json:"safety_requirements"`
	IsActive                 bool              `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// The tools/skills/steps columns hold JSON-encoded string slices so the
// schema stays portable across postgres and sqlite.

func (t *MaintenanceTask) SetRequiredTools(tools []string) error {
	return setJSONList(&t.RequiredTools, tools)
}

func (t *MaintenanceTask) GetRequiredTools() []string {
	return getJSONList(t.RequiredTools)
}

func (t *MaintenanceTask) SetRequiredSkills(skills []string) error {
	return setJSONList(&t.RequiredSkills, skills)
}

func (t *MaintenanceTask) GetRequiredSkills() []string {
	return getJSONList(t.RequiredSkills)
}

func (t *MaintenanceTask) SetProcedureSteps(steps []string) error {
	return setJSONList(&t.ProcedureSteps, steps)
}

func (t *MaintenanceTask) GetProcedureSteps() []string {
	return getJSONList(t.ProcedureSteps)
}

func setJSONList(dst *string, values []string) error {
	b, err := json.Marshal(values)
	if err != nil {
		return err
	}
	*dst = string(b)
	return nil
}

func getJSONList(src string) []string {
	if src == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(src), &values); err != nil {
		return nil
	}
	return values
}

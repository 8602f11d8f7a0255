package model

import "time"

// EquipmentCategory classifies a piece of AV equipment.
type EquipmentCategory string

const (
	CategoryAmplifier  EquipmentCategory = "amplifier"
	CategoryMicrophone EquipmentCategory = "microphone"
	CategoryDSP        EquipmentCategory = "dsp"
	CategoryMixer      EquipmentCategory = "mixer"
	CategorySpeaker    EquipmentCategory = "speaker"
	CategoryProjector  EquipmentCategory = "projector"
	CategoryDisplay    EquipmentCategory = "display"
	CategoryLighting   EquipmentCategory = "lighting"
	CategoryCable      EquipmentCategory = "cable"
	CategoryOther      EquipmentCategory = "other"
)

// EquipmentCategories lists every recognized category value.
var EquipmentCategories = []EquipmentCategory{
	CategoryAmplifier, CategoryMicrophone, CategoryDSP, CategoryMixer,
	CategorySpeaker, CategoryProjector, CategoryDisplay, CategoryLighting,
	CategoryCable, CategoryOther,
}

// Valid reports whether c is a recognized category.
func (c EquipmentCategory) Valid() bool {
	for _, v := range EquipmentCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Equipment represents a single piece of AV equipment owned by a facility.
//
// NextMaintenance is derived: a pure function of LastMaintenance and the
// maintenance policy. It is recomputed whenever either input changes and
// stored only so list queries can filter/sort on it.
type Equipment struct {
	ID                 int64             `gorm:"primaryKey" json:"id"`
	FacilityID         int64             `gorm:"index;not null" json:"facility_id"`
	Name               string            `gorm:"size:256;not null" json:"name"`
	Category           EquipmentCategory `gorm:"size:32;not null;index" json:"category"`
	Manufacturer       string            `gorm:"size:128" json:"manufacturer"`
	Model              string            `gorm:"size:128" json:"model"`
	SerialNumber       string            `gorm:"size:128" json:"serial_number"`
	PurchaseDate       *time.Time        `gorm:"type:date" json:"purchase_date"`
	InstallationDate   *time.Time        `gorm:"type:date" json:"installation_date"`
	WarrantyExpiry     *time.Time        `gorm:"type:date" json:"warranty_expiry"`
	LocationInFacility string            `gorm:"size:256" json:"location_in_facility"`
	Specifications     string            `gorm:"type:text" json:"specifications"`

	OperatingHours float64 `gorm:"not null;default:0" json:"operating_hours"`
	PowerCycles    int     `gorm:"not null;default:0" json:"power_cycles"`

	MaintenanceIntervalDays int     `gorm:"not null;default:90" json:"maintenance_interval_days"`
	UsageBasedMaintenance   bool    `gorm:"not null;default:false" json:"usage_based_maintenance"`
	UsageThresholdHours     float64 `gorm:"not null;default:1000" json:"usage_threshold_hours"`
	HoursAtLastMaintenance  float64 `gorm:"not null;default:0" json:"hours_at_last_maintenance"`

	LastMaintenance *time.Time `gorm:"type:date" json:"last_maintenance"`
	NextMaintenance *time.Time `gorm:"type:date;index" json:"next_maintenance"`

	IsCritical   bool   `gorm:"not null;default:false" json:"is_critical"`
	IsActive     bool   `gorm:"not null;default:true;index" json:"is_active"`
	FailureCount int    `gorm:"not null;default:0" json:"failure_count"`
	Notes        string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Facility Facility `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

package model

import "time"

// Facility represents a physical studio location that owns equipment.
type Facility struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Location     string `gorm:"size:256;not null" json:"location"`
	Address      string `gorm:"size:256" json:"address"`
	City         string `gorm:"size:128" json:"city"`
	State        string `gorm:"size:64" json:"state"`
	ZipCode      string `gorm:"size:16" json:"zip_code"`
	Phone        string `gorm:"size:32" json:"phone"`
	Email        string `gorm:"size:128" json:"email"`
	ManagerName  string `gorm:"size:128" json:"manager_name"`
	ManagerEmail string `gorm:"size:128" json:"manager_email"`
	Timezone     string `gorm:"size:64" json:"timezone"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Equipment []Equipment `gorm:"foreignKey:FacilityID" json:"-"`
}

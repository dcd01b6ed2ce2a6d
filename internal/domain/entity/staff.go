package entity

import "time"

// Staff is a member of the clinic staff. Patients reference doctors by ID only.
type Staff struct {
	ID        string    `gorm:"type:varchar(20);primaryKey" json:"staff_id"`
	FirstName string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Role      string    `gorm:"type:varchar(20);not null;index" json:"role"`
	Email     string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Status    string    `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s *Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Staff status constants
const (
	StaffStatusActive   = "active"
	StaffStatusInactive = "inactive"
)

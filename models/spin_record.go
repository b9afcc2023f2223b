package models

import "time"

// SpinRecord is written once per resolved spin or admin assignment and is
// never updated afterwards.
type SpinRecord struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	PrizeID    string    `gorm:"type:varchar(36);not null;index" json:"prize_id"`
	IsAssigned bool      `gorm:"not null;index" json:"is_assigned"`
	AssignedBy *string   `gorm:"type:varchar(36)" json:"assigned_by,omitempty"`
	SpinTime   time.Time `gorm:"not null;index" json:"spin_time"`
}

func (SpinRecord) TableName() string {
	return "spin_results"
}

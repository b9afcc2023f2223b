package models

import "time"

// Prize is one segment of the wheel. Probability is a relative weight in
// [0,100]; the effective chance is Probability divided by the sum over all
// active prizes.
type Prize struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Color       string    `gorm:"size:7;not null" json:"color"`
	Probability float64   `gorm:"not null" json:"probability"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	Position    int       `gorm:"not null" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Prize) TableName() string {
	return "prizes"
}

package models

import "time"

type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:20;not null" json:"phone"`
	Code         string    `gorm:"size:8;uniqueIndex;not null" json:"code"`
	IPAddress    string    `gorm:"column:ip_address;size:45;index" json:"-"`
	HasSpun      bool      `gorm:"not null" json:"has_spun"`
	RegisteredAt time.Time `gorm:"not null;index" json:"registered_at"`
}

func (User) TableName() string {
	return "users"
}

package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Practitioner struct {
	gorm.Model
	FullName    string         `gorm:"column:full_name;size:255;not null" json:"full_name"`
	Phone       string         `gorm:"column:phone;size:20;not null" json:"phone"`
	PhotoPath   string         `gorm:"column:photo_path;size:255" json:"photo_path"`
	Expertise   pq.StringArray `gorm:"type:text[];column:expertise" json:"expertise"`
	SessionMode string         `gorm:"column:session_mode;size:50" json:"session_mode"`
	Gender      string         `gorm:"column:gender;size:20" json:"gender"`
	Fee         float64        `gorm:"column:fee;not null" json:"fee"`
}

func (Practitioner) TableName() string {
	return "practitioners"
}

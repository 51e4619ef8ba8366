package app

import "time"

type Application struct {
	ID           string    `gorm:"primaryKey;column:id"`
	Name         string    `gorm:"column:name;not null"`
	HashedSecret string    `gorm:"column:hashed_secret;not null"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Application) TableName() string { return "apps" }

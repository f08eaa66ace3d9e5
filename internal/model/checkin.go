package model

import (
	"time"

	"gorm.io/gorm"
)

// Checkin 记录用户的学习签到信息，CurrentStreak 由连续签到天数推导
// swagger:model Checkin
type Checkin struct {
	gorm.Model
	UserID     string    `gorm:"type:varchar(36);not null;index:idx_user_checkin"`
	CheckinAt  time.Time `gorm:"not null;index:idx_user_checkin"`
	StreakDays int       `gorm:"default:1"` // 连续签到天数
}

func (Checkin) TableName() string {
	return "checkins"
}

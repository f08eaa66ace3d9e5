package model

import (
	"time"
)

// User 用户表，学习进度的聚合字段（modulesCompleted 等）是冗余列，
// moduleProgress / recentActivity 以 JSON 文本存储，仅在 repository 层编解码。
// swagger:model User
type User struct {
	UUIDBase
	FirstName    string     `gorm:"size:50;not null" json:"firstName"`
	LastName     string     `gorm:"size:50;not null" json:"lastName"`
	Email        string     `gorm:"size:100;unique;not null" json:"email"`
	Password     string     `gorm:"size:100;not null" json:"-"`
	Phone        string     `gorm:"size:30" json:"phone"`
	DateOfBirth  *time.Time `gorm:"type:date" json:"dateOfBirth"`
	Location     string     `gorm:"size:255" json:"location"`
	Bio          string     `gorm:"type:text" json:"bio"`
	Organization string     `gorm:"size:255" json:"organization"`
	Role         string     `gorm:"size:50;default:'Student'" json:"role"`
	IsActive     bool       `gorm:"default:true" json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin"`
	ProfilePhoto string     `gorm:"size:512" json:"profilePhoto"`
	CoverPhoto   string     `gorm:"size:512" json:"coverPhoto"`

	// 学习进度冗余列
	ModulesCompleted     int    `gorm:"default:0" json:"modulesCompleted"`
	TotalHours           int    `gorm:"default:0" json:"totalHours"`
	CurrentStreak        int    `gorm:"default:0" json:"currentStreak"`
	TotalPoints          int    `gorm:"default:0" json:"totalPoints"`
	OverallProgress      int    `gorm:"default:0" json:"overallProgress"`
	ModuleProgress       string `gorm:"type:longtext" json:"-"`
	RecentActivity       string `gorm:"type:longtext" json:"-"`
	LastAccessedModuleID *int   `gorm:"column:last_accessed_module_id" json:"lastAccessedModuleId"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

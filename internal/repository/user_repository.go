package repository

import (
	"context"
	"time"

	"disaster_edu_backend/internal/model"
	"disaster_edu_backend/internal/progress"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdateLastLogin(userID string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", time.Now()).
		Error
}

// GetProfile 读用户行并解码成结构化档案，序列化列只在这一层接触
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*progress.Profile, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return r.toProfile(&user)
}

// PatchProfile 部分更新：patch 里为 nil 的字段不动，非 nil 的整体覆盖。
// 返回写入后的权威档案（整行重读），调用方用它回填会话缓存。
func (r *UserRepository) PatchProfile(ctx context.Context, userID string, patch *progress.ProfilePatch) (*progress.Profile, error) {
	updates := map[string]interface{}{}

	if patch.ModuleProgress != nil {
		raw, err := progress.EncodeModuleProgress(*patch.ModuleProgress)
		if err != nil {
			return nil, err
		}
		updates["module_progress"] = raw
	}
	if patch.RecentActivity != nil {
		raw, err := progress.EncodeActivity(*patch.RecentActivity)
		if err != nil {
			return nil, err
		}
		updates["recent_activity"] = raw
	}
	if patch.ModulesCompleted != nil {
		updates["modules_completed"] = *patch.ModulesCompleted
	}
	if patch.OverallProgress != nil {
		updates["overall_progress"] = *patch.OverallProgress
	}
	if patch.TotalPoints != nil {
		updates["total_points"] = *patch.TotalPoints
	}
	if patch.TotalHours != nil {
		updates["total_hours"] = *patch.TotalHours
	}
	if patch.LastAccessedModuleID != nil {
		updates["last_accessed_module_id"] = *patch.LastAccessedModuleID
	}

	if len(updates) > 0 {
		res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	return r.GetProfile(ctx, userID)
}

// CountEnrollments 扫全表统计每个模块的报名人数（进度里出现即视为报名）
func (r *UserRepository) CountEnrollments() (map[int]int64, error) {
	var rows []model.User
	if err := r.DB.Select("module_progress").Find(&rows).Error; err != nil {
		return nil, err
	}

	stats := make(map[int]int64)
	for _, u := range rows {
		mods, err := progress.DecodeModuleProgress(u.ModuleProgress)
		if err != nil {
			// 历史脏数据跳过，不让单行坏 JSON 拖垮统计
			continue
		}
		for _, m := range mods {
			stats[m.ID]++
		}
	}
	return stats, nil
}

func (r *UserRepository) toProfile(user *model.User) (*progress.Profile, error) {
	mods, err := progress.DecodeModuleProgress(user.ModuleProgress)
	if err != nil {
		return nil, err
	}
	activity, err := progress.DecodeActivity(user.RecentActivity)
	if err != nil {
		return nil, err
	}

	return &progress.Profile{
		ID:                   user.ID,
		FirstName:            user.FirstName,
		LastName:             user.LastName,
		Email:                user.Email,
		Phone:                user.Phone,
		DateOfBirth:          user.DateOfBirth,
		Location:             user.Location,
		Bio:                  user.Bio,
		Organization:         user.Organization,
		Role:                 user.Role,
		ProfilePhoto:         user.ProfilePhoto,
		CoverPhoto:           user.CoverPhoto,
		CreatedAt:            user.CreatedAt,
		ModuleProgress:       mods,
		RecentActivity:       activity,
		LastAccessedModuleID: user.LastAccessedModuleID,
		ModulesCompleted:     user.ModulesCompleted,
		TotalHours:           user.TotalHours,
		CurrentStreak:        user.CurrentStreak,
		TotalPoints:          user.TotalPoints,
		OverallProgress:      user.OverallProgress,
	}, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"disaster_edu_backend/internal/catalog"
	"disaster_edu_backend/internal/model"
	"disaster_edu_backend/internal/repository"
	"disaster_edu_backend/internal/session"
	"disaster_edu_backend/internal/util"
	"disaster_edu_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const moduleStatsCacheKey = "modules:enrollment_stats"

// ProfileUpdate 档案编辑的可写字段，进度相关字段不从这里进（走 ProgressService）
type ProfileUpdate struct {
	FirstName    *string    `json:"firstName"`
	LastName     *string    `json:"lastName"`
	Phone        *string    `json:"phone"`
	DateOfBirth  *time.Time `json:"dateOfBirth"`
	Location     *string    `json:"location"`
	Bio          *string    `json:"bio"`
	Organization *string    `json:"organization"`
	ProfilePhoto *string    `json:"profilePhoto"`
	CoverPhoto   *string    `json:"coverPhoto"`
}

// UserService 处理档案编辑、签到连击和模块报名统计
type UserService struct {
	UserRepo    *repository.UserRepository
	CheckinRepo *repository.CheckinRepository
	Sessions    *session.Manager
	Catalog     *catalog.Catalog
	Redis       *redis.Client
	statsTTL    time.Duration
}

func NewUserService(userRepo *repository.UserRepository, checkinRepo *repository.CheckinRepository, sessions *session.Manager, cat *catalog.Catalog, rdb *redis.Client, statsTTL time.Duration) *UserService {
	return &UserService{
		UserRepo:    userRepo,
		CheckinRepo: checkinRepo,
		Sessions:    sessions,
		Catalog:     cat,
		Redis:       rdb,
		statsTTL:    statsTTL,
	}
}

// UpdateProfile 更新非进度字段并刷新会话缓存里的档案
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		user.Phone = *upd.Phone
	}
	if upd.DateOfBirth != nil {
		user.DateOfBirth = upd.DateOfBirth
	}
	if upd.Location != nil {
		user.Location = *upd.Location
	}
	if upd.Bio != nil {
		user.Bio = *upd.Bio
	}
	if upd.Organization != nil {
		user.Organization = *upd.Organization
	}
	if upd.ProfilePhoto != nil {
		user.ProfilePhoto = *upd.ProfilePhoto
	}
	if upd.CoverPhoto != nil {
		user.CoverPhoto = *upd.CoverPhoto
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}

	s.refreshSession(ctx, userID)
	return user, nil
}

// Checkin 每日签到：连着昨天签到则连击 +1，断档重置为 1。
// 连击天数同步写回用户行的 current_streak 冗余列。
func (s *UserService) Checkin(ctx context.Context, userID string) (int, error) {
	now := time.Now()

	if _, err := s.CheckinRepo.FindByUserAndDate(userID, now); err == nil {
		return 0, util.ErrAlreadyCheckedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	streak := 1
	if latest, err := s.CheckinRepo.FindLatestByUser(userID); err == nil {
		yesterday := now.AddDate(0, 0, -1)
		if sameDay(latest.CheckinAt, yesterday) {
			streak = latest.StreakDays + 1
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	if err := s.CheckinRepo.Create(&model.Checkin{
		UserID:     userID,
		CheckinAt:  now,
		StreakDays: streak,
	}); err != nil {
		return 0, err
	}

	if err := s.UserRepo.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("current_streak", streak).Error; err != nil {
		return 0, err
	}

	s.refreshSession(ctx, userID)
	return streak, nil
}

func (s *UserService) IsCheckedInToday(userID string) (bool, error) {
	_, err := s.CheckinRepo.FindByUserAndDate(userID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ModuleStats 每个模块的报名人数（基础人数 + 实际用户进度统计），带 redis 缓存
func (s *UserService) ModuleStats(ctx context.Context) (map[int]int64, error) {
	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, moduleStatsCacheKey).Result(); err == nil {
			var cached map[int]int64
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	counts, err := s.UserRepo.CountEnrollments()
	if err != nil {
		return nil, err
	}

	stats := make(map[int]int64, len(s.Catalog.All()))
	for _, m := range s.Catalog.All() {
		stats[m.ID] = int64(m.BaseEnrolled) + counts[m.ID]
	}

	if s.Redis != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.Redis.Set(ctx, moduleStatsCacheKey, raw, s.statsTTL).Err(); err != nil {
				logger.Log.Warn("module stats cache write failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}

// refreshSession 档案行变了之后，把会话缓存替换成最新的权威档案
func (s *UserService) refreshSession(ctx context.Context, userID string) {
	st := s.Sessions.Get(userID)
	if st == nil {
		return
	}
	p, err := s.UserRepo.GetProfile(ctx, userID)
	if err != nil {
		logger.Log.Warn("session refresh failed", zap.String("userID", userID), zap.Error(err))
		return
	}
	st.Set(p)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

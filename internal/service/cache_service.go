package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skillsprint_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	cacheTTL            = 5 * time.Minute
	objectiveKeyPrefix  = "objective:"
	objectiveListPrefix = "objective_list:"
	sprintKeyPrefix     = "sprint:"
	genCountKeyPrefix   = "gen_count:"
)

// CacheService 读穿缓存。变更一律整条失效后重读，绝不部分合并，
// 读方要么看到旧值要么看到重新拉取的新值。
type CacheService struct {
	Redis *redis.Client
}

func NewCacheService(rdb *redis.Client) *CacheService {
	return &CacheService{Redis: rdb}
}

// GetJSON 读取缓存并反序列化到out，未命中返回false
func (s *CacheService) GetJSON(ctx context.Context, key string, out interface{}) bool {
	if s.Redis == nil {
		return false
	}
	val, err := s.Redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		logger.Log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

// SetJSON 序列化写入缓存，失败只记日志（缓存是尽力而为）
func (s *CacheService) SetJSON(ctx context.Context, key string, v interface{}) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		logger.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateObjective 目标变更后的缓存失效：目标详情+所属用户的列表
func (s *CacheService) InvalidateObjective(ctx context.Context, objectiveID string, userID uint) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(ctx,
		objectiveKeyPrefix+objectiveID,
		fmt.Sprintf("%s%d", objectiveListPrefix, userID),
	)
}

// InvalidateSprint 冲刺变更后的缓存失效
func (s *CacheService) InvalidateSprint(ctx context.Context, sprintID string) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(ctx, sprintKeyPrefix+sprintID)
}

// IncrDailyGeneration 累加当日生成计数，返回累加后的值。计数键在次日零点过期
func (s *CacheService) IncrDailyGeneration(ctx context.Context, userID uint) (int64, error) {
	key := dailyGenerationKey(userID)
	count, err := s.Redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
		s.Redis.ExpireAt(ctx, key, midnight)
	}
	return count, nil
}

// DailyGenerationCount 查询当日生成计数
func (s *CacheService) DailyGenerationCount(ctx context.Context, userID uint) (int64, error) {
	val, err := s.Redis.Get(ctx, dailyGenerationKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func dailyGenerationKey(userID uint) string {
	return fmt.Sprintf("%s%d:%s", genCountKeyPrefix, userID, time.Now().Format("2006-01-02"))
}

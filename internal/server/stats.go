package server

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key
	guessLeaderboardKey = "leaderboard:guesses"
	dailyGuessesKey     = "leaderboard:guesses:daily:"
)

// GuesserRank 猜中榜条目
type GuesserRank struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"playerName"`
	Guesses    int    `json:"guesses"`
}

// StatsManager 猜中次数统计，玩家名即榜单成员（无账号体系）
type StatsManager struct {
	redis *redis.Client
}

// NewStatsManager 创建统计管理器
func NewStatsManager(client *redis.Client) *StatsManager {
	return &StatsManager{redis: client}
}

// RecordCorrectGuess 记录一次猜中：总榜 + 当日榜各加一
func (sm *StatsManager) RecordCorrectGuess(ctx context.Context, playerName string) error {
	if err := sm.redis.ZIncrBy(ctx, guessLeaderboardKey, 1, playerName).Err(); err != nil {
		return err
	}

	// 当日榜保留两天
	dailyKey := dailyGuessesKey + time.Now().Format("2006-01-02")
	if err := sm.redis.ZIncrBy(ctx, dailyKey, 1, playerName).Err(); err != nil {
		return err
	}
	return sm.redis.Expire(ctx, dailyKey, 48*time.Hour).Err()
}

// TopGuessers 获取猜中榜前 limit 名（从高到低）
func (sm *StatsManager) TopGuessers(ctx context.Context, limit int) ([]GuesserRank, error) {
	results, err := sm.redis.ZRevRangeWithScores(ctx, guessLeaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]GuesserRank, 0, len(results))
	for i, result := range results {
		name, ok := result.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, GuesserRank{
			Rank:       i + 1,
			PlayerName: name,
			Guesses:    int(result.Score),
		})
	}
	return entries, nil
}

// GuessCount 获取玩家的累计猜中次数，未上榜返回 0
func (sm *StatsManager) GuessCount(ctx context.Context, playerName string) (int, error) {
	score, err := sm.redis.ZScore(ctx, guessLeaderboardKey, playerName).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return int(score), nil
}

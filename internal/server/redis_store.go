package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	gameKeyPrefix = "game:"

	// 游戏快照过期时间
	gameExpiration = 2 * time.Hour
)

// GameData 游戏快照（用于 Redis 序列化，不含秘密词）
type GameData struct {
	Code        string   `json:"code"`
	Host        string   `json:"host"`
	State       int      `json:"state"`
	Players     []string `json:"players"`
	CurrentTurn int      `json:"current_turn"`
	BotStyle    string   `json:"bot_style"`
	CreatedAt   int64    `json:"created_at"`
}

// RedisStore Redis 存储，保存游戏快照用于运维观测，不做状态恢复
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SaveGame 保存游戏快照到 Redis
func (rs *RedisStore) SaveGame(ctx context.Context, game *Game) error {
	game.mu.Lock()
	data := GameData{
		Code:        game.Code,
		Host:        game.Host,
		State:       int(game.State),
		Players:     game.playerNames(),
		CurrentTurn: game.currentTurn,
		BotStyle:    game.botStyle,
		CreatedAt:   game.CreatedAt.Unix(),
	}
	game.mu.Unlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化游戏数据失败: %w", err)
	}

	key := gameKeyPrefix + data.Code
	return rs.client.Set(ctx, key, jsonData, gameExpiration).Err()
}

// LoadGame 从 Redis 加载游戏快照，不存在时返回 nil
func (rs *RedisStore) LoadGame(ctx context.Context, code string) (*GameData, error) {
	key := gameKeyPrefix + code
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var gameData GameData
	if err := json.Unmarshal(data, &gameData); err != nil {
		return nil, fmt.Errorf("反序列化游戏数据失败: %w", err)
	}

	return &gameData, nil
}

// DeleteGame 从 Redis 删除游戏快照
func (rs *RedisStore) DeleteGame(ctx context.Context, code string) error {
	key := gameKeyPrefix + code
	return rs.client.Del(ctx, key).Err()
}

// GetAllGameCodes 获取所有有快照的游戏号
func (rs *RedisStore) GetAllGameCodes(ctx context.Context) ([]string, error) {
	keys, err := rs.client.Keys(ctx, gameKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	codes := make([]string, len(keys))
	for i, key := range keys {
		codes[i] = key[len(gameKeyPrefix):]
	}
	return codes, nil
}

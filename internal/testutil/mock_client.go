//go:build !production

package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/guess-the-word/internal/clue"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetName(name string) {
	m.Called(name)
}

func (m *MockClient) GetGame() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetGame(gameID string) {
	m.Called(gameID)
}

func (m *MockClient) SendEvent(event any) {
	m.Called(event)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient 简单的 mock 客户端，不使用 testify（用于不需要断言的测试）
type SimpleClient struct {
	ID     string
	Name   string
	GameID string

	mu     sync.Mutex
	events []any
}

func NewSimpleClient(id, name string) *SimpleClient {
	return &SimpleClient{ID: id, Name: name}
}

func (c *SimpleClient) GetID() string         { return c.ID }
func (c *SimpleClient) GetName() string       { return c.Name }
func (c *SimpleClient) SetName(name string)   { c.Name = name }
func (c *SimpleClient) GetGame() string       { return c.GameID }
func (c *SimpleClient) SetGame(gameID string) { c.GameID = gameID }
func (c *SimpleClient) Close()                {}

func (c *SimpleClient) SendEvent(event any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events 返回收到的事件快照（广播可能来自其他 goroutine）
func (c *SimpleClient) Events() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.events))
	copy(out, c.events)
	return out
}

// LastEvent 最近一条事件，没有则返回 nil
func (c *SimpleClient) LastEvent() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return nil
	}
	return c.events[len(c.events)-1]
}

// StubGenerator 固定返回值的提示生成器
type StubGenerator struct {
	Clue clue.Clue
	Err  error

	// Block 不为 nil 时，Generate 会阻塞到该通道关闭，用于模拟慢响应
	Block chan struct{}
}

func (g *StubGenerator) Generate(ctx context.Context, guess string, secretWord []string, style string) (clue.Clue, error) {
	if g.Block != nil {
		select {
		case <-g.Block:
		case <-ctx.Done():
			return clue.Clue{}, ctx.Err()
		}
	}
	return g.Clue, g.Err
}

package types

// ClientInterface 定义客户端连接接口（游戏逻辑不直接依赖 WebSocket，方便测试）
type ClientInterface interface {
	GetID() string
	GetName() string
	SetName(name string)
	GetGame() string
	SetGame(gameID string)
	SendEvent(event any)
	Close()
}

package protocol

// Action 消息动作类型，所有消息都是带 action 判别字段的扁平 JSON 对象
type Action string

// 客户端 → 服务端 动作
const (
	ActionCreateGame        Action = "create_game"         // 创建游戏
	ActionJoinGame          Action = "join_game"           // 加入游戏
	ActionJoinLobby         Action = "join_lobby"          // 绑定连接到已知游戏（进入大厅页）
	ActionStartGame         Action = "start_game"          // 开始游戏（仅房主）
	ActionSubmitGuess       Action = "submit_guess"        // 提交猜词
	ActionPlayAgain         Action = "play_again"          // 再来一局（仅房主）
	ActionRequestWordChange Action = "request_word_change" // 发起换词投票
	ActionWordChangeVote    Action = "word_change_vote"    // 换词投票表态
)

// 服务端 → 客户端 动作
const (
	ActionGameCreated         Action = "game_created"          // 游戏创建成功
	ActionJoinGameResponse    Action = "join_game_response"    // 加入游戏结果
	ActionPlayerJoined        Action = "player_joined"         // 有玩家加入
	ActionPlayerLeft          Action = "player_left"           // 有玩家离开
	ActionGameStarted         Action = "game_started"          // 游戏开始
	ActionGameUpdate          Action = "game_update"           // 猜错，AI 提示
	ActionCorrectGuess        Action = "correct_guess"         // 猜中
	ActionWordChangeRequested Action = "word_change_requested" // 换词投票发起
	ActionWordChanged         Action = "word_changed"          // 换词投票通过
	ActionReturnToLobby       Action = "return_to_lobby"       // 回到大厅
	ActionError               Action = "error"                 // 错误消息
)

// ClientMessage 客户端消息的字段超集，按 action 取用
type ClientMessage struct {
	Action     Action `json:"action"`
	GameID     string `json:"gameId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	UserGuess  string `json:"userGuess,omitempty"`
	BotStyle   string `json:"botStyle,omitempty"`
	Vote       string `json:"vote,omitempty"` // "yes" / "no"
}

// --- 服务端事件 ---

// GameCreatedEvent 游戏创建成功，只发给创建者
type GameCreatedEvent struct {
	Action         Action `json:"action"`
	GameID         string `json:"gameId"`
	PlayerName     string `json:"playerName"`
	StartingPlayer string `json:"startingPlayer"` // 创建者占位，正式开局时随机
}

// JoinGameResponseEvent 加入游戏结果，只发给加入者
type JoinGameResponseEvent struct {
	Action         Action   `json:"action"`
	Success        bool     `json:"success"`
	GameID         string   `json:"gameId,omitempty"`
	PlayerName     string   `json:"playerName,omitempty"`
	Players        []string `json:"players,omitempty"`
	IsHost         bool     `json:"isHost,omitempty"`
	StartingPlayer string   `json:"startingPlayer,omitempty"`
	Message        string   `json:"message,omitempty"`
}

// PlayerJoinedEvent 广播：有玩家加入
type PlayerJoinedEvent struct {
	Action         Action   `json:"action"`
	Players        []string `json:"players"`
	StartingPlayer string   `json:"startingPlayer,omitempty"`
}

// PlayerLeftEvent 广播：有玩家离开
type PlayerLeftEvent struct {
	Action  Action   `json:"action"`
	Players []string `json:"players"`
}

// GameStartedEvent 广播：游戏开始
type GameStartedEvent struct {
	Action        Action `json:"action"`
	CurrentPlayer string `json:"currentPlayer"`
}

// GameUpdateEvent 广播：猜错后的 AI 提示
type GameUpdateEvent struct {
	Action        Action `json:"action"`
	Player        string `json:"player"`
	Guess         string `json:"guess"`
	Response      string `json:"response"`
	Emoji         string `json:"emoji"`
	CurrentPlayer string `json:"currentPlayer"`
}

// CorrectGuessEvent 广播：猜中
type CorrectGuessEvent struct {
	Action        Action `json:"action"`
	Player        string `json:"player"`
	Guess         string `json:"guess"`
	Response      string `json:"response"`
	WinnerEmoji   string `json:"winnerEmoji"`
	LoserEmoji    string `json:"loserEmoji"`
	CurrentPlayer string `json:"currentPlayer"`
}

// WordChangeRequestedEvent 广播：换词投票发起
type WordChangeRequestedEvent struct {
	Action      Action `json:"action"`
	RequestedBy string `json:"requestedBy"`
}

// WordChangedEvent 广播：换词投票全票通过
type WordChangedEvent struct {
	Action  Action `json:"action"`
	Message string `json:"message"`
}

// ReturnToLobbyEvent 广播：重置回大厅
type ReturnToLobbyEvent struct {
	Action  Action   `json:"action"`
	Message string   `json:"message"`
	Players []string `json:"players"`
	Host    string   `json:"host"`
}

// ErrorEvent 错误消息，只发给出错请求的连接
type ErrorEvent struct {
	Action  Action `json:"action"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// 固定文案（与客户端约定，勿随意改动）
const (
	CongratsMessage   = "Congratulations! You've guessed the secret word!"
	ClueFallbackText  = "Failed to generate a response."
	WinnerEmoji       = "🥳"
	LoserEmoji        = "🫠"
	WordChangedNotice = "The secret word has been changed!"
)

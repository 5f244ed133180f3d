package server

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/palemoky/guess-the-word/internal/clue"
	"github.com/palemoky/guess-the-word/internal/config"
	"github.com/palemoky/guess-the-word/internal/protocol"
	"github.com/palemoky/guess-the-word/internal/types"
	"github.com/palemoky/guess-the-word/internal/words"
)

const (
	// 游戏房间号长度
	gameCodeLength = 6
	// 游戏房间号字符集（大写字母 + 数字）
	gameCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GameState 游戏状态
type GameState int

const (
	GameStateLobby   GameState = iota // 大厅，等待开始
	GameStatePlaying                  // 游戏中
)

// GamePlayer 游戏中的玩家，加入顺序即回合顺序
type GamePlayer struct {
	Client types.ClientInterface
	Name   string
}

// Game 一局猜词游戏
type Game struct {
	Code      string        // 房间号
	Host      string        // 房主名（重置后保留）
	State     GameState     // 当前状态
	Players   []*GamePlayer // 玩家列表（按加入顺序）
	CreatedAt time.Time     // 创建时间

	secretWord   []string  // 秘密词同义词集合，猜中任意一个即算对
	currentTurn  int       // 当前回合玩家下标，仅 Playing 状态有效
	guessPending bool      // 是否有一次猜测正在等待 AI 提示
	botStyle     string    // 机器人风格，创建时固定
	vote         *wordVote // 进行中的换词投票
	closed       bool      // 已解散；从管理器取出指针到拿到锁之间游戏可能被删除

	mu sync.Mutex
}

// GameManager 游戏管理器，持有所有进行中的游戏
type GameManager struct {
	cfg       *config.Config
	generator clue.Generator
	wordList  *words.List
	store     *RedisStore   // 可为 nil（测试）
	stats     *StatsManager // 可为 nil（测试）

	games map[string]*Game
	mu    sync.RWMutex
}

// NewGameManager 创建游戏管理器
func NewGameManager(cfg *config.Config, gen clue.Generator, wordList *words.List, store *RedisStore, stats *StatsManager) *GameManager {
	gm := &GameManager{
		cfg:       cfg,
		generator: gen,
		wordList:  wordList,
		store:     store,
		stats:     stats,
		games:     make(map[string]*Game),
	}

	// 启动空闲游戏清理协程
	go gm.cleanupLoop()

	return gm
}

// CreateGame 创建游戏，创建者即房主
func (gm *GameManager) CreateGame(client types.ClientInterface, playerName, botStyle string) (*Game, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	code := gm.generateGameCode()

	game := &Game{
		Code:       code,
		Host:       playerName,
		State:      GameStateLobby,
		Players:    []*GamePlayer{{Client: client, Name: playerName}},
		CreatedAt:  time.Now(),
		secretWord: gm.wordList.Random(),
		botStyle:   clue.ValidStyle(botStyle),
	}
	gm.games[code] = game

	client.SetName(playerName)
	client.SetGame(code)

	gm.persist(game)

	log.Printf("🎮 游戏 %s 已创建，房主 %s", code, playerName)

	return game, nil
}

// JoinGame 加入游戏
func (gm *GameManager) JoinGame(client types.ClientInterface, code, playerName string) (*Game, error) {
	gm.mu.RLock()
	game, exists := gm.games[code]
	gm.mu.RUnlock()
	if !exists {
		return nil, ErrGameNotFound
	}

	game.mu.Lock()
	defer game.mu.Unlock()

	if game.closed {
		return nil, ErrGameNotFound
	}
	if game.State != GameStateLobby {
		return nil, ErrGameAlreadyStarted
	}
	if len(game.Players) >= gm.cfg.Game.MaxPlayers {
		return nil, ErrGameFull
	}
	for _, p := range game.Players {
		if p.Name == playerName {
			return nil, ErrNameTaken
		}
	}

	game.Players = append(game.Players, &GamePlayer{Client: client, Name: playerName})
	client.SetName(playerName)
	client.SetGame(code)

	// 通知房间内其他玩家
	game.broadcastExcept(client.GetID(), &protocol.PlayerJoinedEvent{
		Action:         protocol.ActionPlayerJoined,
		Players:        game.playerNames(),
		StartingPlayer: game.startingPlayerName(),
	})

	gm.persist(game)

	log.Printf("👤 玩家 %s 加入游戏 %s", playerName, code)

	return game, nil
}

// JoinLobby 把连接重新绑定到已知游戏（页面跳转后用新连接续上旧身份）
func (gm *GameManager) JoinLobby(client types.ClientInterface, code, playerName string) (*Game, error) {
	gm.mu.RLock()
	game, exists := gm.games[code]
	gm.mu.RUnlock()
	if !exists {
		return nil, ErrGameNotFound
	}

	game.mu.Lock()
	defer game.mu.Unlock()

	if game.closed {
		return nil, ErrGameNotFound
	}

	// 如果该名字已是玩家，更新其连接引用；否则只做广播绑定
	for _, p := range game.Players {
		if p.Name == playerName {
			p.Client = client
			break
		}
	}
	client.SetName(playerName)
	client.SetGame(code)

	game.broadcast(&protocol.PlayerJoinedEvent{
		Action:         protocol.ActionPlayerJoined,
		Players:        game.playerNames(),
		StartingPlayer: game.startingPlayerName(),
	})

	return game, nil
}

// StartGame 开始游戏，仅房主可操作，随机选择先手
func (gm *GameManager) StartGame(client types.ClientInterface, code string) error {
	gm.mu.RLock()
	game, exists := gm.games[code]
	gm.mu.RUnlock()
	if !exists {
		return ErrGameNotFound
	}

	game.mu.Lock()
	defer game.mu.Unlock()

	if client.GetName() != game.Host {
		return ErrNotHost
	}
	if game.State != GameStateLobby {
		return ErrGameAlreadyStarted
	}
	if len(game.Players) < 2 {
		return ErrNotEnoughPlayers
	}

	game.State = GameStatePlaying
	game.currentTurn = rand.Intn(len(game.Players))

	game.broadcast(&protocol.GameStartedEvent{
		Action:        protocol.ActionGameStarted,
		CurrentPlayer: game.currentPlayerName(),
	})

	gm.persist(game)

	log.Printf("✅ 游戏 %s 开始，先手 %s", code, game.currentPlayerName())

	return nil
}

// SubmitGuess 提交猜测。猜中立即广播并换新词；
// 猜错则标记 guessPending 并异步生成 AI 提示，提示就绪后才轮转回合。
func (gm *GameManager) SubmitGuess(client types.ClientInterface, code, guess string) error {
	gm.mu.RLock()
	game, exists := gm.games[code]
	gm.mu.RUnlock()
	if !exists {
		return ErrGameNotFound
	}

	game.mu.Lock()
	defer game.mu.Unlock()

	if game.State != GameStatePlaying {
		return ErrGameNotStarted
	}
	if game.currentPlayerName() != client.GetName() {
		return ErrNotYourTurn
	}
	if game.guessPending {
		return ErrGuessInFlight
	}

	playerName := client.GetName()
	trimmed := strings.TrimSpace(guess)

	if game.matchesSecret(trimmed) {
		// 猜中：换新词、清掉未决投票、轮转回合
		game.secretWord = gm.wordList.Random()
		game.vote = nil
		game.currentTurn = (game.currentTurn + 1) % len(game.Players)

		game.broadcast(&protocol.CorrectGuessEvent{
			Action:        protocol.ActionCorrectGuess,
			Player:        playerName,
			Guess:         guess,
			Response:      protocol.CongratsMessage,
			WinnerEmoji:   protocol.WinnerEmoji,
			LoserEmoji:    protocol.LoserEmoji,
			CurrentPlayer: game.currentPlayerName(),
		})

		gm.recordCorrectGuess(playerName)
		gm.persist(game)

		log.Printf("🎉 玩家 %s 在游戏 %s 中猜中了", playerName, code)
		return nil
	}

	// 猜错：在锁外生成提示，期间拒绝新的猜测
	game.guessPending = true
	secret := make([]string, len(game.secretWord))
	copy(secret, game.secretWord)

	go gm.resolveGuess(game, playerName, guess, secret, game.botStyle)

	return nil
}

// resolveGuess 异步生成 AI 提示，完成后重新拿锁推进回合。
// 不持有任何锁调用 Generate，慢响应只会阻塞这一局的回合推进。
func (gm *GameManager) resolveGuess(game *Game, playerName, guess string, secret []string, style string) {
	ctx, cancel := context.WithTimeout(context.Background(), gm.cfg.Game.ClueTimeoutDuration())
	defer cancel()

	c, err := gm.generator.Generate(ctx, guess, secret, style)
	if err != nil {
		// 生成失败降级为固定文案，回合照常推进
		log.Printf("🤖 游戏 %s 提示生成失败: %v", game.Code, err)
		c = clue.Clue{Sentence: protocol.ClueFallbackText, Emoji: ""}
	}

	game.mu.Lock()
	defer game.mu.Unlock()

	if !game.guessPending {
		// 等待期间游戏被重置（play_again 或人数不足回大厅），丢弃过期提示
		return
	}
	game.guessPending = false

	if game.State != GameStatePlaying || len(game.Players) == 0 {
		return
	}

	// 等待期间可能有人离开，先收敛再轮转
	game.currentTurn %= len(game.Players)
	game.currentTurn = (game.currentTurn + 1) % len(game.Players)

	game.broadcast(&protocol.GameUpdateEvent{
		Action:        protocol.ActionGameUpdate,
		Player:        playerName,
		Guess:         guess,
		Response:      c.Sentence,
		Emoji:         c.Emoji,
		CurrentPlayer: game.currentPlayerName(),
	})

	gm.persist(game)
}

// PlayAgain 重置回大厅再来一局，仅房主可操作
func (gm *GameManager) PlayAgain(client types.ClientInterface, code string) error {
	gm.mu.RLock()
	game, exists := gm.games[code]
	gm.mu.RUnlock()
	if !exists {
		return ErrGameNotFound
	}

	game.mu.Lock()
	defer game.mu.Unlock()

	if client.GetName() != game.Host {
		return ErrNotHost
	}

	game.resetToLobby(gm.wordList)

	game.broadcast(&protocol.ReturnToLobbyEvent{
		Action:  protocol.ActionReturnToLobby,
		Message: client.GetName() + " wants to play again.",
		Players: game.playerNames(),
		Host:    game.Host,
	})

	gm.persist(game)

	log.Printf("🔄 游戏 %s 重置回大厅", code)

	return nil
}

// Leave 把客户端移出所在游戏：收敛回合指针、移交房主、必要时解散游戏。
// 断开连接和切换游戏前都会走到这里。
func (gm *GameManager) Leave(client types.ClientInterface) {
	code := client.GetGame()
	if code == "" {
		return
	}

	gm.mu.RLock()
	game, exists := gm.games[code]
	gm.mu.RUnlock()
	if !exists {
		return
	}

	game.mu.Lock()

	idx := -1
	for i, p := range game.Players {
		if p.Client != nil && p.Client.GetID() == client.GetID() {
			idx = i
			break
		}
	}
	if idx == -1 {
		// join_lobby 绑定过但不是玩家
		game.mu.Unlock()
		client.SetGame("")
		return
	}

	leaver := game.Players[idx]
	game.Players = append(game.Players[:idx], game.Players[idx+1:]...)
	client.SetGame("")

	log.Printf("👋 玩家 %s 离开游戏 %s", leaver.Name, code)

	// 最后一人离开，解散游戏
	if len(game.Players) == 0 {
		game.closed = true
		game.mu.Unlock()

		gm.mu.Lock()
		delete(gm.games, code)
		gm.mu.Unlock()

		gm.discard(code)
		log.Printf("🏠 游戏 %s 已解散", code)
		return
	}
	defer game.mu.Unlock()

	// 房主离开，顺位移交
	if leaver.Name == game.Host {
		game.Host = game.Players[0].Name
	}

	// 投票中有人离开：发起者走了取消投票，否则作废其选票并重新结算
	if game.vote != nil {
		if game.vote.RequestedBy == leaver.Name {
			game.vote = nil
		} else {
			delete(game.vote.Ballots, leaver.Name)
			gm.maybeResolveVote(game)
		}
	}

	game.broadcast(&protocol.PlayerLeftEvent{
		Action:  protocol.ActionPlayerLeft,
		Players: game.playerNames(),
	})

	if game.State == GameStatePlaying {
		if len(game.Players) < 2 {
			// 人数不足无法继续，回到大厅
			game.resetToLobby(gm.wordList)
			game.broadcast(&protocol.ReturnToLobbyEvent{
				Action:  protocol.ActionReturnToLobby,
				Message: "Not enough players left. Returning to the lobby.",
				Players: game.playerNames(),
				Host:    game.Host,
			})
		} else if idx <= game.currentTurn {
			// 离开者在当前回合之前（或正是当前回合），指针前移后收敛
			if idx < game.currentTurn {
				game.currentTurn--
			}
			game.currentTurn %= len(game.Players)
		}
	}

	gm.persist(game)
}

// GetGame 获取游戏
func (gm *GameManager) GetGame(code string) *Game {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.games[code]
}

// CountGames 进行中的游戏数量
func (gm *GameManager) CountGames() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}

// generateGameCode 生成唯一房间号，调用方需持有 gm.mu
func (gm *GameManager) generateGameCode() string {
	for {
		code := make([]byte, gameCodeLength)
		for i := range code {
			code[i] = gameCodeChars[rand.Intn(len(gameCodeChars))]
		}
		codeStr := string(code)
		if _, exists := gm.games[codeStr]; !exists {
			return codeStr
		}
	}
}

// persist 异步保存游戏快照，尽力而为
func (gm *GameManager) persist(game *Game) {
	if gm.store == nil {
		return
	}
	go func() { _ = gm.store.SaveGame(context.Background(), game) }()
}

// discard 异步删除游戏快照
func (gm *GameManager) discard(code string) {
	if gm.store == nil {
		return
	}
	go func() { _ = gm.store.DeleteGame(context.Background(), code) }()
}

// recordCorrectGuess 异步记录猜中次数
func (gm *GameManager) recordCorrectGuess(playerName string) {
	if gm.stats == nil {
		return
	}
	go func() { _ = gm.stats.RecordCorrectGuess(context.Background(), playerName) }()
}

// cleanupLoop 定期清理超时未开始的游戏
func (gm *GameManager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		gm.cleanup()
	}
}

// cleanup 清理超时仍停留在大厅的游戏
func (gm *GameManager) cleanup() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	timeout := gm.cfg.Game.GameTimeoutDuration()
	now := time.Now()

	for code, game := range gm.games {
		game.mu.Lock()
		if game.State == GameStateLobby && now.Sub(game.CreatedAt) > timeout {
			game.broadcast(protocol.NewErrorEventWithText(protocol.ErrCodeUnknown, "Game closed after being idle for too long"))
			for _, p := range game.Players {
				p.Client.SetGame("")
			}
			game.closed = true
			game.mu.Unlock()
			delete(gm.games, code)
			gm.discard(code)
			log.Printf("🏠 游戏 %s 超时已清理", code)
		} else {
			game.mu.Unlock()
		}
	}
}

// --- Game 方法（调用方需持有 g.mu）---

// broadcast 广播事件给所有玩家
func (g *Game) broadcast(event any) {
	for _, p := range g.Players {
		p.Client.SendEvent(event)
	}
}

// broadcastExcept 广播事件给除指定客户端外的所有玩家
func (g *Game) broadcastExcept(excludeID string, event any) {
	for _, p := range g.Players {
		if p.Client.GetID() != excludeID {
			p.Client.SendEvent(event)
		}
	}
}

// playerNames 按回合顺序返回玩家名
func (g *Game) playerNames() []string {
	names := make([]string, len(g.Players))
	for i, p := range g.Players {
		names[i] = p.Name
	}
	return names
}

// currentPlayerName 当前回合玩家名
func (g *Game) currentPlayerName() string {
	if len(g.Players) == 0 {
		return ""
	}
	return g.Players[g.currentTurn%len(g.Players)].Name
}

// startingPlayerName 开局后才有先手，大厅阶段返回空串
func (g *Game) startingPlayerName() string {
	if g.State != GameStatePlaying {
		return ""
	}
	return g.currentPlayerName()
}

// matchesSecret 忽略大小写匹配任意同义词
func (g *Game) matchesSecret(guess string) bool {
	for _, w := range g.secretWord {
		if strings.EqualFold(guess, w) {
			return true
		}
	}
	return false
}

// resetToLobby 重置回大厅：换新词、清空回合与投票状态
func (g *Game) resetToLobby(wordList *words.List) {
	g.State = GameStateLobby
	g.secretWord = wordList.Random()
	g.currentTurn = 0
	g.guessPending = false
	g.vote = nil
}

// --- 错误定义 ---

// GameError 带错误码的游戏错误，发回给出错请求的连接
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newGameError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

var (
	ErrGameNotFound       = newGameError(protocol.ErrCodeGameNotFound)
	ErrGameFull           = newGameError(protocol.ErrCodeGameFull)
	ErrNameTaken          = newGameError(protocol.ErrCodeNameTaken)
	ErrNotInGame          = newGameError(protocol.ErrCodeNotInGame)
	ErrNotHost            = newGameError(protocol.ErrCodeNotHost)
	ErrGameAlreadyStarted = newGameError(protocol.ErrCodeGameAlreadyStarted)
	ErrGameNotStarted     = newGameError(protocol.ErrCodeGameNotStarted)
	ErrNotYourTurn        = newGameError(protocol.ErrCodeNotYourTurn)
	ErrGuessInFlight      = newGameError(protocol.ErrCodeGuessInFlight)
	ErrNotEnoughPlayers   = &GameError{Code: protocol.ErrCodeUnknown, Message: "Need at least 2 players to start"}
)

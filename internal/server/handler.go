package server

import (
	"errors"
	"log"

	"github.com/palemoky/guess-the-word/internal/protocol"
	"github.com/palemoky/guess-the-word/internal/types"
)

// Handler 消息处理器
type Handler struct {
	games *GameManager
}

// NewHandler 创建处理器
func NewHandler(games *GameManager) *Handler {
	return &Handler{games: games}
}

// Handle 处理消息。所有校验错误只发回给出错的连接，绝不广播。
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.ClientMessage) {
	switch msg.Action {
	case protocol.ActionCreateGame:
		h.handleCreateGame(client, msg)
	case protocol.ActionJoinGame:
		h.handleJoinGame(client, msg)
	case protocol.ActionJoinLobby:
		h.handleJoinLobby(client, msg)
	case protocol.ActionStartGame:
		h.handleStartGame(client, msg)
	case protocol.ActionSubmitGuess:
		h.handleSubmitGuess(client, msg)
	case protocol.ActionPlayAgain:
		h.handlePlayAgain(client, msg)
	case protocol.ActionRequestWordChange:
		h.handleRequestWordChange(client, msg)
	case protocol.ActionWordChangeVote:
		h.handleWordChangeVote(client, msg)

	default:
		log.Printf("未知消息类型: %s", msg.Action)
		client.SendEvent(protocol.NewErrorEvent(protocol.ErrCodeInvalidMsg))
	}
}

// handleCreateGame 处理创建游戏
func (h *Handler) handleCreateGame(client types.ClientInterface, msg *protocol.ClientMessage) {
	if msg.PlayerName == "" {
		client.SendEvent(protocol.NewErrorEvent(protocol.ErrCodeInvalidMsg))
		return
	}

	// 已在其他游戏中时先离开
	if client.GetGame() != "" {
		h.games.Leave(client)
	}

	game, err := h.games.CreateGame(client, msg.PlayerName, msg.BotStyle)
	if err != nil {
		h.sendError(client, err)
		return
	}

	client.SendEvent(&protocol.GameCreatedEvent{
		Action:         protocol.ActionGameCreated,
		GameID:         game.Code,
		PlayerName:     msg.PlayerName,
		StartingPlayer: msg.PlayerName,
	})
}

// handleJoinGame 处理加入游戏。
// 加入失败不走 error 事件，按约定回 success=false 的 join_game_response。
func (h *Handler) handleJoinGame(client types.ClientInterface, msg *protocol.ClientMessage) {
	if msg.GameID == "" || msg.PlayerName == "" {
		client.SendEvent(protocol.NewErrorEvent(protocol.ErrCodeInvalidMsg))
		return
	}

	if client.GetGame() != "" {
		h.games.Leave(client)
	}

	game, err := h.games.JoinGame(client, msg.GameID, msg.PlayerName)
	if err != nil {
		message := err.Error()
		var gameErr *GameError
		if errors.As(err, &gameErr) {
			message = gameErr.Message
		}
		client.SendEvent(&protocol.JoinGameResponseEvent{
			Action:  protocol.ActionJoinGameResponse,
			Success: false,
			Message: message,
		})
		return
	}

	game.mu.Lock()
	resp := &protocol.JoinGameResponseEvent{
		Action:         protocol.ActionJoinGameResponse,
		Success:        true,
		GameID:         game.Code,
		PlayerName:     msg.PlayerName,
		Players:        game.playerNames(),
		IsHost:         game.Host == msg.PlayerName,
		StartingPlayer: game.startingPlayerName(),
	}
	game.mu.Unlock()

	client.SendEvent(resp)
}

// handleJoinLobby 处理连接重新绑定
func (h *Handler) handleJoinLobby(client types.ClientInterface, msg *protocol.ClientMessage) {
	if msg.GameID == "" || msg.PlayerName == "" {
		client.SendEvent(protocol.NewErrorEvent(protocol.ErrCodeInvalidMsg))
		return
	}

	if _, err := h.games.JoinLobby(client, msg.GameID, msg.PlayerName); err != nil {
		h.sendError(client, err)
	}
}

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface, msg *protocol.ClientMessage) {
	code := msg.GameID
	if code == "" {
		code = client.GetGame()
	}

	if err := h.games.StartGame(client, code); err != nil {
		h.sendError(client, err)
	}
}

// handleSubmitGuess 处理提交猜测
func (h *Handler) handleSubmitGuess(client types.ClientInterface, msg *protocol.ClientMessage) {
	if msg.UserGuess == "" {
		client.SendEvent(protocol.NewErrorEvent(protocol.ErrCodeInvalidMsg))
		return
	}

	code := msg.GameID
	if code == "" {
		code = client.GetGame()
	}

	if err := h.games.SubmitGuess(client, code, msg.UserGuess); err != nil {
		h.sendError(client, err)
	}
}

// handlePlayAgain 处理再来一局
func (h *Handler) handlePlayAgain(client types.ClientInterface, msg *protocol.ClientMessage) {
	code := msg.GameID
	if code == "" {
		code = client.GetGame()
	}

	if err := h.games.PlayAgain(client, code); err != nil {
		h.sendError(client, err)
	}
}

// handleRequestWordChange 处理发起换词投票
func (h *Handler) handleRequestWordChange(client types.ClientInterface, msg *protocol.ClientMessage) {
	code := msg.GameID
	if code == "" {
		code = client.GetGame()
	}

	if err := h.games.RequestWordChange(client, code); err != nil {
		h.sendError(client, err)
	}
}

// handleWordChangeVote 处理换词投票表态
func (h *Handler) handleWordChangeVote(client types.ClientInterface, msg *protocol.ClientMessage) {
	code := msg.GameID
	if code == "" {
		code = client.GetGame()
	}

	if err := h.games.CastVote(client, code, msg.Vote); err != nil {
		h.sendError(client, err)
	}
}

// sendError 把错误发回给出错请求的连接
func (h *Handler) sendError(client types.ClientInterface, err error) {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		client.SendEvent(&protocol.ErrorEvent{
			Action:  protocol.ActionError,
			Code:    gameErr.Code,
			Message: gameErr.Message,
		})
		return
	}
	client.SendEvent(protocol.NewErrorEventWithText(protocol.ErrCodeUnknown, err.Error()))
}

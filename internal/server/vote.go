package server

import (
	"log"

	"github.com/palemoky/guess-the-word/internal/protocol"
	"github.com/palemoky/guess-the-word/internal/types"
)

// wordVote 一次换词投票。发起者默认同意，其余玩家每人一票，
// 全票同意才换词，任何一张反对票直接作废。
type wordVote struct {
	RequestedBy string
	Ballots     map[string]bool // 玩家名 → 是否同意（不含发起者）
}

// RequestWordChange 发起换词投票。已有投票进行中时静默忽略。
func (gm *GameManager) RequestWordChange(client types.ClientInterface, code string) error {
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

	requester := client.GetName()
	if !game.hasPlayer(requester) {
		return ErrNotInGame
	}

	if game.vote != nil {
		return nil
	}

	game.vote = &wordVote{
		RequestedBy: requester,
		Ballots:     make(map[string]bool),
	}

	game.broadcast(&protocol.WordChangeRequestedEvent{
		Action:      protocol.ActionWordChangeRequested,
		RequestedBy: requester,
	})

	log.Printf("🗳️ 玩家 %s 在游戏 %s 发起换词投票", requester, code)

	// 没有其他人需要表态时（只剩发起者一人）立即结算
	gm.maybeResolveVote(game)

	return nil
}

// CastVote 换词投票表态。无效选票（没有投票、发起者自投、重复投、非玩家）静默丢弃。
func (gm *GameManager) CastVote(client types.ClientInterface, code, vote string) error {
	gm.mu.RLock()
	game, exists := gm.games[code]
	gm.mu.RUnlock()
	if !exists {
		return ErrGameNotFound
	}

	game.mu.Lock()
	defer game.mu.Unlock()

	if game.vote == nil {
		return nil
	}

	voter := client.GetName()
	if voter == game.vote.RequestedBy || !game.hasPlayer(voter) {
		return nil
	}
	if _, voted := game.vote.Ballots[voter]; voted {
		return nil
	}

	game.vote.Ballots[voter] = vote == "yes"
	gm.maybeResolveVote(game)

	return nil
}

// maybeResolveVote 结算投票，调用方需持有 game.mu。
// 反对票照常记录，凑齐全员表态后才统一结算：
// 全同意换词并广播，有反对票静默作废。结算前投票一直处于进行中。
func (gm *GameManager) maybeResolveVote(game *Game) {
	if game.vote == nil {
		return
	}

	// 发起者不投票，需要其余所有在场玩家表态（离开者的选票已作废）
	required := 0
	for _, p := range game.Players {
		if p.Name != game.vote.RequestedBy {
			required++
		}
	}
	if len(game.vote.Ballots) < required {
		return
	}

	for _, yes := range game.vote.Ballots {
		if !yes {
			game.vote = nil
			log.Printf("🗳️ 游戏 %s 换词投票被否决", game.Code)
			return
		}
	}

	game.vote = nil
	game.secretWord = gm.wordList.Random()

	game.broadcast(&protocol.WordChangedEvent{
		Action:  protocol.ActionWordChanged,
		Message: protocol.WordChangedNotice,
	})

	gm.persist(game)

	log.Printf("🗳️ 游戏 %s 换词投票通过，已更换秘密词", game.Code)
}

// hasPlayer 名字是否在玩家列表中，调用方需持有 g.mu
func (g *Game) hasPlayer(name string) bool {
	for _, p := range g.Players {
		if p.Name == name {
			return true
		}
	}
	return false
}

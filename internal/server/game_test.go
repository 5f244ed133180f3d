package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/guess-the-word/internal/clue"
	"github.com/palemoky/guess-the-word/internal/config"
	"github.com/palemoky/guess-the-word/internal/protocol"
	"github.com/palemoky/guess-the-word/internal/testutil"
	"github.com/palemoky/guess-the-word/internal/words"
)

// newTestManager builds a manager with a stub clue generator and no redis
func newTestManager(gen clue.Generator) *GameManager {
	cfg := config.Default()
	return NewGameManager(cfg, gen, words.MustLoad(), nil, nil)
}

// startedGame creates a two-player game in Playing state with a known
// secret word, host on turn
func startedGame(t *testing.T, gm *GameManager) (*Game, *testutil.SimpleClient, *testutil.SimpleClient) {
	t.Helper()

	host := testutil.NewSimpleClient("c1", "")
	guest := testutil.NewSimpleClient("c2", "")

	game, err := gm.CreateGame(host, "Ava", clue.StyleRegular)
	require.NoError(t, err)

	_, err = gm.JoinGame(guest, game.Code, "Ben")
	require.NoError(t, err)

	require.NoError(t, gm.StartGame(host, game.Code))

	game.mu.Lock()
	game.currentTurn = 0 // force Ava on turn, StartGame picks randomly
	game.secretWord = []string{"bear", "grizzly"}
	game.mu.Unlock()

	return game, host, guest
}

// findGameUpdate returns the latest game_update event received, if any
func findGameUpdate(events []any) *protocol.GameUpdateEvent {
	for i := len(events) - 1; i >= 0; i-- {
		if e, ok := events[i].(*protocol.GameUpdateEvent); ok {
			return e
		}
	}
	return nil
}

func findCorrectGuess(events []any) *protocol.CorrectGuessEvent {
	for i := len(events) - 1; i >= 0; i-- {
		if e, ok := events[i].(*protocol.CorrectGuessEvent); ok {
			return e
		}
	}
	return nil
}

func findReturnToLobby(events []any) *protocol.ReturnToLobbyEvent {
	for i := len(events) - 1; i >= 0; i-- {
		if e, ok := events[i].(*protocol.ReturnToLobbyEvent); ok {
			return e
		}
	}
	return nil
}

func TestGameManager_CreateGame(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	client := testutil.NewSimpleClient("c1", "")

	game, err := gm.CreateGame(client, "Ava", "bully")
	require.NoError(t, err)

	assert.Len(t, game.Code, gameCodeLength)
	assert.Equal(t, "Ava", game.Host)
	assert.Equal(t, GameStateLobby, game.State)
	assert.Equal(t, []string{"Ava"}, game.playerNames())
	assert.Equal(t, clue.StyleBully, game.botStyle)
	assert.NotEmpty(t, game.secretWord)
	assert.Equal(t, game.Code, client.GetGame())
	assert.Equal(t, "Ava", client.GetName())
}

func TestGameManager_CreateGame_UnknownStyleFallsBack(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})

	game, err := gm.CreateGame(testutil.NewSimpleClient("c1", ""), "Ava", "pirate")
	require.NoError(t, err)
	assert.Equal(t, clue.StyleRegular, game.botStyle)
}

func TestGameManager_JoinGame(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	host := testutil.NewSimpleClient("c1", "")
	guest := testutil.NewSimpleClient("c2", "")

	game, err := gm.CreateGame(host, "Ava", "")
	require.NoError(t, err)

	joined, err := gm.JoinGame(guest, game.Code, "Ben")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ava", "Ben"}, joined.playerNames())
	assert.Equal(t, game.Code, guest.GetGame())

	// Joining player must not get the player_joined broadcast, the host must
	assert.Empty(t, guest.Events())
	require.Len(t, host.Events(), 1)
	evt, ok := host.Events()[0].(*protocol.PlayerJoinedEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"Ava", "Ben"}, evt.Players)
	assert.Empty(t, evt.StartingPlayer) // not started yet
}

func TestGameManager_JoinGame_Errors(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	host := testutil.NewSimpleClient("c1", "")

	game, err := gm.CreateGame(host, "Ava", "")
	require.NoError(t, err)

	// Unknown code
	_, err = gm.JoinGame(testutil.NewSimpleClient("cx", ""), "NOSUCH", "Ben")
	assert.ErrorIs(t, err, ErrGameNotFound)

	// Duplicate name
	_, err = gm.JoinGame(testutil.NewSimpleClient("c2", ""), game.Code, "Ava")
	assert.ErrorIs(t, err, ErrNameTaken)

	// Full game
	gm.cfg.Game.MaxPlayers = 2
	_, err = gm.JoinGame(testutil.NewSimpleClient("c2", ""), game.Code, "Ben")
	require.NoError(t, err)
	_, err = gm.JoinGame(testutil.NewSimpleClient("c3", ""), game.Code, "Cleo")
	assert.ErrorIs(t, err, ErrGameFull)
}

func TestGameManager_JoinGame_AfterStart(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	game, _, _ := startedGame(t, gm)

	_, err := gm.JoinGame(testutil.NewSimpleClient("c3", ""), game.Code, "Cleo")
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
}

func TestGameManager_StartGame(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	host := testutil.NewSimpleClient("c1", "")
	guest := testutil.NewSimpleClient("c2", "")

	game, err := gm.CreateGame(host, "Ava", "")
	require.NoError(t, err)

	// Not enough players
	assert.ErrorIs(t, gm.StartGame(host, game.Code), ErrNotEnoughPlayers)

	_, err = gm.JoinGame(guest, game.Code, "Ben")
	require.NoError(t, err)

	// Only the host may start
	assert.ErrorIs(t, gm.StartGame(guest, game.Code), ErrNotHost)

	require.NoError(t, gm.StartGame(host, game.Code))
	assert.Equal(t, GameStatePlaying, game.State)

	// Everyone gets game_started with a valid current player
	for _, c := range []*testutil.SimpleClient{host, guest} {
		evt, ok := c.LastEvent().(*protocol.GameStartedEvent)
		require.True(t, ok)
		assert.Contains(t, []string{"Ava", "Ben"}, evt.CurrentPlayer)
	}

	// Starting twice fails
	assert.ErrorIs(t, gm.StartGame(host, game.Code), ErrGameAlreadyStarted)
}

func TestGameManager_SubmitGuess_Correct(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	game, host, guest := startedGame(t, gm)

	require.NoError(t, gm.SubmitGuess(host, game.Code, "Grizzly"))

	for _, c := range []*testutil.SimpleClient{host, guest} {
		evt := findCorrectGuess(c.Events())
		require.NotNil(t, evt)
		assert.Equal(t, "Ava", evt.Player)
		assert.Equal(t, "Grizzly", evt.Guess)
		assert.Equal(t, protocol.CongratsMessage, evt.Response)
		assert.Equal(t, protocol.WinnerEmoji, evt.WinnerEmoji)
		assert.Equal(t, protocol.LoserEmoji, evt.LoserEmoji)
		assert.Equal(t, "Ben", evt.CurrentPlayer) // turn rotated
	}

	// A fresh word was issued and play continues
	game.mu.Lock()
	defer game.mu.Unlock()
	assert.Equal(t, GameStatePlaying, game.State)
	assert.Equal(t, 1, game.currentTurn)
	assert.False(t, game.guessPending)
}

func TestGameManager_SubmitGuess_WrongBroadcastsClue(t *testing.T) {
	gen := &testutil.StubGenerator{Clue: clue.Clue{Sentence: "Petting one is risky.", Emoji: "🐶"}}
	gm := newTestManager(gen)
	game, host, guest := startedGame(t, gm)

	require.NoError(t, gm.SubmitGuess(host, game.Code, "dog"))

	// Clue resolution is asynchronous
	assert.Eventually(t, func() bool {
		return findGameUpdate(guest.Events()) != nil
	}, time.Second, 10*time.Millisecond)

	evt := findGameUpdate(guest.Events())
	assert.Equal(t, "Ava", evt.Player)
	assert.Equal(t, "dog", evt.Guess)
	assert.Equal(t, "Petting one is risky.", evt.Response)
	assert.Equal(t, "🐶", evt.Emoji)
	assert.Equal(t, "Ben", evt.CurrentPlayer)

	game.mu.Lock()
	defer game.mu.Unlock()
	assert.False(t, game.guessPending)
	assert.Equal(t, 1, game.currentTurn)
}

func TestGameManager_SubmitGuess_ClueFailureFallsBack(t *testing.T) {
	gen := &testutil.StubGenerator{Err: assert.AnError}
	gm := newTestManager(gen)
	game, host, guest := startedGame(t, gm)

	require.NoError(t, gm.SubmitGuess(host, game.Code, "dog"))

	assert.Eventually(t, func() bool {
		return findGameUpdate(guest.Events()) != nil
	}, time.Second, 10*time.Millisecond)

	// Turn still advances with the fixed fallback text
	evt := findGameUpdate(guest.Events())
	assert.Equal(t, protocol.ClueFallbackText, evt.Response)
	assert.Empty(t, evt.Emoji)
	assert.Equal(t, "Ben", evt.CurrentPlayer)
}

func TestGameManager_SubmitGuess_Rejections(t *testing.T) {
	block := make(chan struct{})
	gen := &testutil.StubGenerator{Clue: clue.Clue{Sentence: "hint"}, Block: block}
	gm := newTestManager(gen)
	game, host, guest := startedGame(t, gm)

	// Not started yet
	other, err := gm.CreateGame(testutil.NewSimpleClient("c9", ""), "Zoe", "")
	require.NoError(t, err)
	assert.ErrorIs(t, gm.SubmitGuess(testutil.NewSimpleClient("c9", ""), other.Code, "dog"), ErrGameNotStarted)

	// Unknown game
	assert.ErrorIs(t, gm.SubmitGuess(host, "NOSUCH", "dog"), ErrGameNotFound)

	// Not your turn
	assert.ErrorIs(t, gm.SubmitGuess(guest, game.Code, "dog"), ErrNotYourTurn)

	// Second guess while the clue is pending
	require.NoError(t, gm.SubmitGuess(host, game.Code, "dog"))
	assert.ErrorIs(t, gm.SubmitGuess(host, game.Code, "cat"), ErrGuessInFlight)

	// Rejected guesses must not have advanced the turn
	game.mu.Lock()
	assert.Equal(t, 0, game.currentTurn)
	game.mu.Unlock()

	close(block)
	assert.Eventually(t, func() bool {
		return findGameUpdate(guest.Events()) != nil
	}, time.Second, 10*time.Millisecond)
}

func TestGameManager_PlayAgain(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	game, host, guest := startedGame(t, gm)

	// Only the host may reset
	assert.ErrorIs(t, gm.PlayAgain(guest, game.Code), ErrNotHost)

	require.NoError(t, gm.PlayAgain(host, game.Code))

	for _, c := range []*testutil.SimpleClient{host, guest} {
		evt := findReturnToLobby(c.Events())
		require.NotNil(t, evt)
		assert.Equal(t, "Ava wants to play again.", evt.Message)
		assert.Equal(t, []string{"Ava", "Ben"}, evt.Players)
		assert.Equal(t, "Ava", evt.Host)
	}

	game.mu.Lock()
	defer game.mu.Unlock()
	assert.Equal(t, GameStateLobby, game.State)
	assert.False(t, game.guessPending)
	assert.Nil(t, game.vote)
}

func TestGameManager_PlayAgain_DropsStaleClue(t *testing.T) {
	block := make(chan struct{})
	gen := &testutil.StubGenerator{Clue: clue.Clue{Sentence: "stale hint"}, Block: block}
	gm := newTestManager(gen)
	game, host, guest := startedGame(t, gm)

	require.NoError(t, gm.SubmitGuess(host, game.Code, "dog"))
	require.NoError(t, gm.PlayAgain(host, game.Code))

	// The pending clue resolves after the reset and must be discarded
	close(block)
	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, findGameUpdate(guest.Events()))
}

func TestGameManager_Leave_PromotesHostAndReclampsTurn(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	host := testutil.NewSimpleClient("c1", "")
	guest := testutil.NewSimpleClient("c2", "")
	third := testutil.NewSimpleClient("c3", "")

	game, err := gm.CreateGame(host, "Ava", "")
	require.NoError(t, err)
	_, err = gm.JoinGame(guest, game.Code, "Ben")
	require.NoError(t, err)
	_, err = gm.JoinGame(third, game.Code, "Cleo")
	require.NoError(t, err)
	require.NoError(t, gm.StartGame(host, game.Code))

	game.mu.Lock()
	game.currentTurn = 0 // Ava on turn
	game.mu.Unlock()

	gm.Leave(host)

	// Host role moves to the next player, turn pointer stays valid
	game.mu.Lock()
	assert.Equal(t, "Ben", game.Host)
	assert.Equal(t, []string{"Ben", "Cleo"}, game.playerNames())
	assert.Equal(t, "Ben", game.currentPlayerName())
	assert.Equal(t, GameStatePlaying, game.State)
	game.mu.Unlock()

	evt, ok := guest.LastEvent().(*protocol.PlayerLeftEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"Ben", "Cleo"}, evt.Players)
	assert.Empty(t, host.GetGame())
}

func TestGameManager_Leave_BelowTwoPlayersReturnsToLobby(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	game, host, guest := startedGame(t, gm)

	gm.Leave(guest)

	game.mu.Lock()
	assert.Equal(t, GameStateLobby, game.State)
	assert.Equal(t, []string{"Ava"}, game.playerNames())
	game.mu.Unlock()

	evt := findReturnToLobby(host.Events())
	require.NotNil(t, evt)
	assert.Equal(t, []string{"Ava"}, evt.Players)
	assert.Equal(t, "Ava", evt.Host)
}

func TestGameManager_Leave_LastPlayerDeletesGame(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	host := testutil.NewSimpleClient("c1", "")

	game, err := gm.CreateGame(host, "Ava", "")
	require.NoError(t, err)

	gm.Leave(host)

	assert.Nil(t, gm.GetGame(game.Code))
	assert.Equal(t, 0, gm.CountGames())
	assert.Empty(t, host.GetGame())
}

func TestGameManager_JoinGame_RacesDissolution(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})

	// The joiner resolves the game pointer before taking its lock; if the last
	// player dissolves the game in that window the join must fail instead of
	// appending to a game that is no longer reachable by code
	for i := 0; i < 100; i++ {
		host := testutil.NewSimpleClient("c1", "")
		game, err := gm.CreateGame(host, "Ava", "")
		require.NoError(t, err)

		joiner := testutil.NewSimpleClient("c2", "")
		done := make(chan error, 1)
		go func() {
			_, err := gm.JoinGame(joiner, game.Code, "Ben")
			done <- err
		}()
		gm.Leave(host)

		if err := <-done; err != nil {
			assert.ErrorIs(t, err, ErrGameNotFound)
			assert.Empty(t, joiner.GetGame())
		} else {
			live := gm.GetGame(game.Code)
			require.NotNil(t, live)
			live.mu.Lock()
			assert.Contains(t, live.playerNames(), "Ben")
			live.mu.Unlock()
			gm.Leave(joiner)
		}
	}
}

func TestGameManager_Leave_TurnPointerBeforeLeaver(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})
	host := testutil.NewSimpleClient("c1", "")
	guest := testutil.NewSimpleClient("c2", "")
	third := testutil.NewSimpleClient("c3", "")

	game, err := gm.CreateGame(host, "Ava", "")
	require.NoError(t, err)
	_, err = gm.JoinGame(guest, game.Code, "Ben")
	require.NoError(t, err)
	_, err = gm.JoinGame(third, game.Code, "Cleo")
	require.NoError(t, err)
	require.NoError(t, gm.StartGame(host, game.Code))

	game.mu.Lock()
	game.currentTurn = 2 // Cleo on turn
	game.mu.Unlock()

	gm.Leave(host) // Ava leaves, indices shift left

	game.mu.Lock()
	defer game.mu.Unlock()
	assert.Equal(t, "Cleo", game.currentPlayerName())
}

func TestGame_MatchesSecret(t *testing.T) {
	g := &Game{secretWord: []string{"sofa", "couch"}}

	assert.True(t, g.matchesSecret("sofa"))
	assert.True(t, g.matchesSecret("COUCH"))
	assert.False(t, g.matchesSecret("chair"))
	assert.False(t, g.matchesSecret(""))
}

func TestGameManager_GenerateGameCode_Unique(t *testing.T) {
	gm := newTestManager(&testutil.StubGenerator{})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := gm.generateGameCode()
		assert.Len(t, code, gameCodeLength)
		gm.games[code] = &Game{Code: code}
		assert.False(t, seen[code])
		seen[code] = true
	}
}

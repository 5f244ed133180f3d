package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/guess-the-word/internal/clue"
	"github.com/palemoky/guess-the-word/internal/protocol"
	"github.com/palemoky/guess-the-word/internal/testutil"
	"github.com/palemoky/guess-the-word/internal/words"
)

func newTestSinglePlayer(gen clue.Generator) *SinglePlayer {
	return NewSinglePlayer(gen, words.MustLoad(), 5*time.Second)
}

// postForm sends an x-www-form-urlencoded request the way the mobile client does
func postForm(t *testing.T, handler http.HandlerFunc, values url.Values) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	handler(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSinglePlayer_GenerateNewWord(t *testing.T) {
	sp := newTestSinglePlayer(&testutil.StubGenerator{})

	rec, body := postForm(t, sp.handleGenerate, url.Values{
		"sessionId":       {"s1"},
		"mode":            {"single"},
		"generateNewWord": {"true"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New word generated.", body["message"])
}

func TestSinglePlayer_CorrectGuess(t *testing.T) {
	sp := newTestSinglePlayer(&testutil.StubGenerator{})
	sp.sessions["s1"] = &singleSession{secretWord: []string{"sofa", "couch"}}

	rec, body := postForm(t, sp.handleGenerate, url.Values{
		"sessionId": {"s1"},
		"userGuess": {"Couch"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Couch", body["yourGuess"])
	assert.Equal(t, protocol.CongratsMessage, body["response"])
	assert.Equal(t, protocol.WinnerEmoji, body["emoji"])
}

func TestSinglePlayer_WrongGuessReturnsClue(t *testing.T) {
	gen := &testutil.StubGenerator{Clue: clue.Clue{Sentence: "Comfy, but not that one.", Emoji: "🪑"}}
	sp := newTestSinglePlayer(gen)
	sp.sessions["s1"] = &singleSession{secretWord: []string{"sofa"}}

	_, body := postForm(t, sp.handleGenerate, url.Values{
		"sessionId": {"s1"},
		"userGuess": {"chair"},
	})

	assert.Equal(t, "chair", body["yourGuess"])
	assert.Equal(t, "Comfy, but not that one.", body["response"])
	assert.Equal(t, "🪑", body["emoji"])
}

func TestSinglePlayer_ClueFailureFallsBack(t *testing.T) {
	sp := newTestSinglePlayer(&testutil.StubGenerator{Err: assert.AnError})
	sp.sessions["s1"] = &singleSession{secretWord: []string{"sofa"}}

	rec, body := postForm(t, sp.handleGenerate, url.Values{
		"sessionId": {"s1"},
		"userGuess": {"chair"},
	})

	// Degrades to the fixed text, still a 200
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, protocol.ClueFallbackText, body["response"])
	assert.Equal(t, "", body["emoji"])
}

func TestSinglePlayer_UnknownSessionGetsFreshWord(t *testing.T) {
	sp := newTestSinglePlayer(&testutil.StubGenerator{Clue: clue.Clue{Sentence: "hint"}})

	rec, _ := postForm(t, sp.handleGenerate, url.Values{
		"sessionId": {"brand-new"},
		"userGuess": {"anything"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	sp.mu.Lock()
	defer sp.mu.Unlock()
	assert.NotEmpty(t, sp.sessions["brand-new"].secretWord)
}

func TestSinglePlayer_InvalidRequests(t *testing.T) {
	sp := newTestSinglePlayer(&testutil.StubGenerator{})

	// Missing session id
	rec, _ := postForm(t, sp.handleGenerate, url.Values{"userGuess": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Multiplayer guesses go over the WebSocket, not this endpoint
	rec, body := postForm(t, sp.handleGenerate, url.Values{
		"sessionId": {"s1"},
		"mode":      {"multi"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid mode", body["error"])
}

func TestSinglePlayer_ReplaceWord(t *testing.T) {
	sp := newTestSinglePlayer(&testutil.StubGenerator{})
	sp.sessions["s1"] = &singleSession{secretWord: []string{"known-word"}}

	rec, body := postForm(t, sp.handleReplaceWord, url.Values{
		"sessionId": {"s1"},
		"mode":      {"single"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	sp.mu.Lock()
	defer sp.mu.Unlock()
	assert.NotEqual(t, []string{"known-word"}, sp.sessions["s1"].secretWord)
}

func TestSinglePlayer_RevealWordLength(t *testing.T) {
	sp := newTestSinglePlayer(&testutil.StubGenerator{})
	sp.sessions["s1"] = &singleSession{secretWord: []string{"sofa", "couch"}}

	rec, body := postForm(t, sp.handleRevealWordLength, url.Values{"sessionId": {"s1"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), body["length"]) // length of the primary synonym
}

func TestSinglePlayer_RevealCharacter(t *testing.T) {
	sp := newTestSinglePlayer(&testutil.StubGenerator{})
	sp.sessions["s1"] = &singleSession{secretWord: []string{"sofa"}}

	rec, body := postForm(t, sp.handleRevealCharacter, url.Values{
		"sessionId": {"s1"},
		"index":     {"2"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "f", body["character"])

	// Out of range
	rec, body = postForm(t, sp.handleRevealCharacter, url.Values{
		"sessionId": {"s1"},
		"index":     {"9"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Index out of range", body["error"])
}

func TestSinglePlayer_AcceptsJSONBody(t *testing.T) {
	sp := newTestSinglePlayer(&testutil.StubGenerator{})
	sp.sessions["s1"] = &singleSession{secretWord: []string{"sofa"}}

	payload := `{"sessionId":"s1","userGuess":"sofa"}`
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	sp.handleGenerate(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, protocol.CongratsMessage, body["response"])
}

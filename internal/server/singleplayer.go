package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/palemoky/guess-the-word/internal/clue"
	"github.com/palemoky/guess-the-word/internal/protocol"
	"github.com/palemoky/guess-the-word/internal/words"
)

// singleSession 单人模式会话，只有一个秘密词
type singleSession struct {
	secretWord []string
}

// SinglePlayer 单人模式：按 sessionId 存储的内存会话 + HTTP 接口
type SinglePlayer struct {
	generator   clue.Generator
	wordList    *words.List
	clueTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*singleSession
}

// NewSinglePlayer 创建单人模式存储
func NewSinglePlayer(gen clue.Generator, wordList *words.List, clueTimeout time.Duration) *SinglePlayer {
	return &SinglePlayer{
		generator:   gen,
		wordList:    wordList,
		clueTimeout: clueTimeout,
		sessions:    make(map[string]*singleSession),
	}
}

// session 取会话，不存在时自动建新会话（原始行为：未知会话直接发新词）
func (sp *SinglePlayer) session(sessionID string) *singleSession {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	s, exists := sp.sessions[sessionID]
	if !exists || len(s.secretWord) == 0 {
		s = &singleSession{secretWord: sp.wordList.Random()}
		sp.sessions[sessionID] = s
	}
	return s
}

// replaceWord 给会话换一个新词
func (sp *SinglePlayer) replaceWord(sessionID string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.sessions[sessionID] = &singleSession{secretWord: sp.wordList.Random()}
}

// singleRequest 单人模式请求字段，表单和 JSON 两种提交方式都接受
type singleRequest struct {
	SessionID      string `json:"sessionId"`
	UserGuess      string `json:"userGuess"`
	Mode           string `json:"mode"`
	GenerateNew    bool   `json:"generateNewWord"`
	CharacterIndex int    `json:"index"`
}

// parseSingleRequest 解析请求，客户端历史上用 x-www-form-urlencoded，新版本用 JSON
func parseSingleRequest(r *http.Request) (*singleRequest, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req singleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	req := &singleRequest{
		SessionID:   r.PostFormValue("sessionId"),
		UserGuess:   r.PostFormValue("userGuess"),
		Mode:        r.PostFormValue("mode"),
		GenerateNew: r.PostFormValue("generateNewWord") == "true",
	}
	if v := r.PostFormValue("index"); v != "" {
		idx, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		req.CharacterIndex = idx
	}
	return req, nil
}

// writeJSON 输出 JSON 响应
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleGenerate 处理单人猜词：generateNewWord 时换新词，否则判定猜测并生成提示
func (sp *SinglePlayer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := parseSingleRequest(r)
	if err != nil || req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}
	if req.Mode != "" && req.Mode != "single" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid mode"})
		return
	}

	if req.GenerateNew {
		sp.replaceWord(req.SessionID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "New word generated."})
		return
	}

	session := sp.session(req.SessionID)

	for _, word := range session.secretWord {
		if strings.EqualFold(strings.TrimSpace(req.UserGuess), word) {
			writeJSON(w, http.StatusOK, map[string]string{
				"yourGuess": req.UserGuess,
				"response":  protocol.CongratsMessage,
				"emoji":     protocol.WinnerEmoji,
			})
			return
		}
	}

	// 猜错，生成提示。单人模式无风格选择，固定 regular
	ctx, cancel := context.WithTimeout(r.Context(), sp.clueTimeout)
	defer cancel()

	c, err := sp.generator.Generate(ctx, req.UserGuess, session.secretWord, clue.StyleRegular)
	if err != nil {
		log.Printf("🤖 单人会话 %s 提示生成失败: %v", req.SessionID, err)
		writeJSON(w, http.StatusOK, map[string]string{
			"yourGuess": req.UserGuess,
			"response":  protocol.ClueFallbackText,
			"emoji":     "",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"yourGuess": req.UserGuess,
		"response":  c.Sentence,
		"emoji":     c.Emoji,
	})
}

// handleReplaceWord 给会话换新词
func (sp *SinglePlayer) handleReplaceWord(w http.ResponseWriter, r *http.Request) {
	req, err := parseSingleRequest(r)
	if err != nil || req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	sp.replaceWord(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleRevealWordLength 提示：秘密词主词长度
func (sp *SinglePlayer) handleRevealWordLength(w http.ResponseWriter, r *http.Request) {
	req, err := parseSingleRequest(r)
	if err != nil || req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	session := sp.session(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]int{"length": len([]rune(session.secretWord[0]))})
}

// handleRevealCharacter 提示：秘密词主词的第 index 个字符
func (sp *SinglePlayer) handleRevealCharacter(w http.ResponseWriter, r *http.Request) {
	req, err := parseSingleRequest(r)
	if err != nil || req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	session := sp.session(req.SessionID)
	word := []rune(session.secretWord[0])
	if req.CharacterIndex < 0 || req.CharacterIndex >= len(word) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Index out of range"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"character": string(word[req.CharacterIndex])})
}

package clue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/palemoky/guess-the-word/internal/config"
)

// ErrNoAPIKey 未配置 OPENAI_API_KEY
var ErrNoAPIKey = errors.New("openai api key is not configured")

// OpenAIGenerator 基于 OpenAI 兼容接口的提示生成器
type OpenAIGenerator struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewOpenAIGenerator 创建提示生成器，超时由调用方通过 context 控制
func NewOpenAIGenerator(cfg config.OpenAIConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  &http.Client{},
	}
}

// 风格附加语，拼在基础提示词后面
var stylePrompts = map[string]string{
	StyleRegular: "Keep your tone light, breezy, and fun. You can use humor and slang in moderation.",
	StyleEmo:     "Answer in a moody, dramatic, world-weary tone, as if every guess deepens your melancholy. Sighing is encouraged.",
	StyleRizz:    "Answer in a smooth, charming, flirtatious tone. Compliment the player's guess while teasing them about the secret.",
	StyleBully:   "Answer in a playful trash-talking tone, teasing the player for how far off their guess is. Keep it cheeky, never genuinely mean.",
}

// Generate 为一次错误猜测生成提示句和 emoji。
// 两个请求并发执行（与提示句相比 emoji 很便宜，但串行会把延迟翻倍）。
func (g *OpenAIGenerator) Generate(ctx context.Context, guess string, secretWord []string, style string) (Clue, error) {
	if g.apiKey == "" {
		return Clue{}, ErrNoAPIKey
	}
	if len(secretWord) == 0 {
		return Clue{}, errors.New("empty secret word")
	}

	sentencePrompt := buildSentencePrompt(guess, secretWord[0], style)
	emojiPrompt := fmt.Sprintf(`Respond only with the best fitting emoji for the word %q without any additional text.`, guess)

	type result struct {
		text string
		err  error
	}
	sentenceCh := make(chan result, 1)
	emojiCh := make(chan result, 1)

	go func() {
		text, err := g.chatCompletion(ctx, sentencePrompt)
		sentenceCh <- result{text, err}
	}()
	go func() {
		text, err := g.chatCompletion(ctx, emojiPrompt)
		emojiCh <- result{text, err}
	}()

	sentence := <-sentenceCh
	emoji := <-emojiCh

	if sentence.err != nil {
		return Clue{}, sentence.err
	}
	if emoji.err != nil {
		return Clue{}, emoji.err
	}

	return Clue{Sentence: sentence.text, Emoji: emoji.text}, nil
}

// buildSentencePrompt 拼接提示词，规则沿用线上版本反复调过的文案
func buildSentencePrompt(guess, secret, style string) string {
	flavor, ok := stylePrompts[style]
	if !ok {
		flavor = stylePrompts[StyleRegular]
	}

	return fmt.Sprintf(`We're going to play a simple game.
We have two words:
User's guess - %s
Secret word - %s
Write the connection you find between the words in one sentence.
Do not use the secret word directly, but you are encouraged to use the user's guess directly.
Don't be too obvious or specific in your answer. Don't use the secret word's emoji. Don't use very related words to the secret word explicitly (aka - if the secret word is "lamp" don't use "bulb").
%s`, guess, secret, flavor)
}

// --- OpenAI chat completions 接口 ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// chatCompletion 单次补全请求
func (g *OpenAIGenerator) chatCompletion(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    g.model,
		Messages: []chatMessage{{Role: "system", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai 返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return "", err
	}
	if cr.Error != nil {
		return "", fmt.Errorf("openai: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("openai 返回空结果")
	}

	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

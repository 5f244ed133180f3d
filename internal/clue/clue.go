package clue

import "context"

// Clue AI 生成的提示：一句暗示 + 一个 emoji
type Clue struct {
	Sentence string
	Emoji    string
}

// Generator 提示生成器。调用有明显延迟且可能失败，
// 调用方必须在不持有任何游戏锁的情况下调用，失败时降级为固定文案。
type Generator interface {
	Generate(ctx context.Context, guess string, secretWord []string, style string) (Clue, error)
}

// 机器人风格
const (
	StyleRegular = "regular"
	StyleEmo     = "emo"
	StyleRizz    = "rizz"
	StyleBully   = "bully"
)

// ValidStyle 检查风格是否合法，不合法时回退到 regular
func ValidStyle(style string) string {
	switch style {
	case StyleRegular, StyleEmo, StyleRizz, StyleBully:
		return style
	default:
		return StyleRegular
	}
}

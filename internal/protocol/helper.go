package protocol

import (
	"encoding/json"
	"errors"
)

// ErrMissingAction 消息缺少 action 字段
var ErrMissingAction = errors.New("message has no action")

// Decode 从 JSON 字节解码客户端消息
func Decode(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Action == "" {
		return nil, ErrMissingAction
	}
	return &msg, nil
}

// Encode 将任意事件编码为 JSON 字节
func Encode(event any) ([]byte, error) {
	return json.Marshal(event)
}

// NewErrorEvent 创建错误事件
func NewErrorEvent(code int) *ErrorEvent {
	return &ErrorEvent{
		Action:  ActionError,
		Code:    code,
		Message: ErrorMessages[code],
	}
}

// NewErrorEventWithText 创建带自定义文本的错误事件
func NewErrorEventWithText(code int, text string) *ErrorEvent {
	return &ErrorEvent{
		Action:  ActionError,
		Code:    code,
		Message: text,
	}
}

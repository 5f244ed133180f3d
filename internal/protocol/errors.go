package protocol

// 错误码
const (
	ErrCodeUnknown            = 1000
	ErrCodeInvalidMsg         = 1001
	ErrCodeGameNotFound       = 2001
	ErrCodeGameFull           = 2002
	ErrCodeNameTaken          = 2003
	ErrCodeNotInGame          = 2004
	ErrCodeNotHost            = 2005
	ErrCodeGameAlreadyStarted = 2006
	ErrCodeGameNotStarted     = 3001
	ErrCodeNotYourTurn        = 3002
	ErrCodeGuessInFlight      = 3003
	ErrCodeClueFailed         = 4001
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:            "Something went wrong",
	ErrCodeInvalidMsg:         "Invalid message format",
	ErrCodeGameNotFound:       "Game not found",
	ErrCodeGameFull:           "Game is full",
	ErrCodeNameTaken:          "That name is already taken",
	ErrCodeNotInGame:          "You are not in this game",
	ErrCodeNotHost:            "Only the host can do that",
	ErrCodeGameAlreadyStarted: "The game has already started",
	ErrCodeGameNotStarted:     "The game has not started yet",
	ErrCodeNotYourTurn:        "Not your turn",
	ErrCodeGuessInFlight:      "A guess is already being processed",
	ErrCodeClueFailed:         "Failed to generate a response",
}

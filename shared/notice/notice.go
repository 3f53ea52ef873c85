// Package notice carries the one-shot user-facing messages that accompany
// every view operation.
package notice

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a transient message shown once to the user.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func Success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }

func Error(msg string) Notice { return Notice{Level: LevelError, Message: msg} }

func Info(msg string) Notice { return Notice{Level: LevelInfo, Message: msg} }

// IsError reports whether the notice signals a failure.
func (n Notice) IsError() bool { return n.Level == LevelError }

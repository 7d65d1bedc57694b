package core

// Logger logs application messages to the configured backends.
// Implementations may inspect trailing args for well-known types
// (errors, context maps, the acting user) and report them accordingly.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

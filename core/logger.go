package core

// Logger is implemented by the logging services.
// args may hold errors, extra data (map[string]interface{}) and the user the log entry is about.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

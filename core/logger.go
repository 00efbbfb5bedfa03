package core

// Logger is any service that can log application events.
// args may contain errors, LogFields or the user the event relates to.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogFields is extra data attached to a logged event.
type LogFields map[string]interface{}

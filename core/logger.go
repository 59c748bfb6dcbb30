package core

// Logger is any service that can record application events; implementations
// may also ship them to an external error tracker.
// Trailing args may carry an error, extra context maps and the acting user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

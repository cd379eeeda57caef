package core

// Logger is the application logger.
// args may contain errors, map[string]interface{} fields and an Identity (the acting user).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Identity describes the authenticated caller attached to log entries.
type Identity struct {
	ID       string
	Email    string
	Role     string
	SchoolID string
}

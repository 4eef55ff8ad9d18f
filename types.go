package session

import "fmt"

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore is the durable client-side slot holding the current bearer
// token. Implementations hold at most one opaque string; Get returns "" when
// the slot is empty.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// Notifier surfaces transient user-facing notifications for auth outcomes.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// Navigator performs surface transitions after auth events.
type Navigator interface {
	NavigateTo(dest Destination)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(dest Destination)

func (f NavigatorFunc) NavigateTo(dest Destination) {
	if f != nil {
		f(dest)
	}
}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Failure(string) {}

type noopNavigator struct{}

func (noopNavigator) NavigateTo(Destination) {}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func normalizeNavigator(n Navigator) Navigator {
	if n == nil {
		return noopNavigator{}
	}
	return n
}

// NormalizeLogger returns the default logger when l is nil.
func NormalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

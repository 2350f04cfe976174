// Package diag carries structured diagnostic events out of the core
// operations. The core never logs on its own; packer, codec and
// reconstructor collect events and return them inside their stats, and the
// calling layer decides how to render them.
package diag

import "fmt"

type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one diagnostic emitted during an operation. Path is the relative
// path the event concerns, when there is one.
type Event struct {
	Level   Level
	Path    string
	Message string
}

func (e Event) String() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s", e.Level, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Level, e.Path, e.Message)
}

// Collector accumulates events in order. The zero value is ready to use.
type Collector struct {
	events []Event
}

func (c *Collector) Infof(path, format string, args ...any) {
	c.add(Info, path, format, args...)
}

func (c *Collector) Warnf(path, format string, args ...any) {
	c.add(Warn, path, format, args...)
}

func (c *Collector) Errorf(path, format string, args ...any) {
	c.add(Error, path, format, args...)
}

func (c *Collector) add(level Level, path, format string, args ...any) {
	c.events = append(c.events, Event{Level: level, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Events returns the collected events in emission order.
func (c *Collector) Events() []Event {
	return c.events
}

package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Namespace is the root of every component logger name.
const Namespace = "go-chroot"

// Compile-time interface checks
var (
	_ LibraryLogger = (*ComponentLogger)(nil)
	_ Named         = (*ComponentLogger)(nil)
)

var (
	baseMu sync.Mutex
	base   = newBaseLogger()
)

func newBaseLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetDebug switches all component loggers between info and debug level.
func SetDebug(debug bool) {
	baseMu.Lock()
	defer baseMu.Unlock()
	if debug {
		base.SetLevel(logrus.DebugLevel)
	} else {
		base.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects all component loggers.
func SetOutput(w io.Writer) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base.SetOutput(w)
}

// ComponentLogger is a LibraryLogger backed by logrus. Every entry carries a
// "component" field holding the logger's qualified name.
type ComponentLogger struct {
	name  string
	entry *logrus.Entry
}

// NewComponentLogger returns a logger for the given component, qualified
// under Namespace ("mount" becomes "go-chroot.mount").
func NewComponentLogger(component string) *ComponentLogger {
	return NewComponentLoggerWith(base, component)
}

// NewComponentLoggerWith is NewComponentLogger on an explicit logrus logger.
func NewComponentLoggerWith(l *logrus.Logger, component string) *ComponentLogger {
	name := qualify(component)
	return &ComponentLogger{
		name:  name,
		entry: l.WithField("component", name),
	}
}

// Name returns the qualified component name.
func (c *ComponentLogger) Name() string {
	return c.name
}

func (c *ComponentLogger) Info(format string, args ...any) {
	c.entry.Infof(format, args...)
}

func (c *ComponentLogger) Debug(format string, args ...any) {
	c.entry.Debugf(format, args...)
}

func (c *ComponentLogger) Warn(format string, args ...any) {
	c.entry.Warnf(format, args...)
}

func (c *ComponentLogger) Error(format string, args ...any) {
	c.entry.Errorf(format, args...)
}

// ForComponent picks the logger a component should write to.
//
// A caller-supplied logger is used as is, unless it is nil or is itself a
// Named logger inside this module's namespace; in those cases a fresh
// component logger is returned so messages are attributed to the component
// and not to whichever package handed the logger down.
func ForComponent(l LibraryLogger, component string) LibraryLogger {
	name := qualify(component)
	if l == nil {
		return NewComponentLogger(name)
	}
	if n, ok := l.(Named); ok && strings.HasPrefix(n.Name(), rootOf(name)) {
		return NewComponentLogger(name)
	}
	return l
}

func qualify(component string) string {
	switch {
	case component == "", component == Namespace:
		return Namespace
	case strings.HasPrefix(component, Namespace+"."):
		return component
	default:
		return Namespace + "." + component
	}
}

func rootOf(name string) string {
	root, _, _ := strings.Cut(name, ".")
	return root
}

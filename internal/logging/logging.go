// Package logging provides the per-component structured logger every
// FAODEL component embeds, modeled on faodel::LoggingInterface
// (faodel-common/LoggingInterface.{hh,cpp}) but backed by logrus instead
// of the original's sbl logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Interface is embedded by every component that needs dbg/info/warn/error
// logging scoped to a component[.subcomponent] name, matching the
// original's LoggingInterface base class.
type Interface struct {
	componentName    string
	subcomponentName string
	debugEnabled     bool
	infoEnabled      bool
	warnEnabled      bool
	entry            *logrus.Entry
}

// New constructs a logging Interface for a top-level component name.
func New(componentName string) *Interface {
	return &Interface{
		componentName: componentName,
		infoEnabled:   true,
		warnEnabled:   true,
		entry:         logrus.WithField("component", componentName),
	}
}

// NewSub constructs a logging Interface for component.subcomponent.
func NewSub(componentName, subcomponentName string) *Interface {
	i := New(componentName)
	i.SetSubcomponentName(subcomponentName)
	return i
}

// ConfigureLoggingDebug toggles debug-level logging.
func (l *Interface) ConfigureLoggingDebug(enable bool) { l.debugEnabled = enable }

// ConfigureLoggingInfo toggles info-level logging.
func (l *Interface) ConfigureLoggingInfo(enable bool) { l.infoEnabled = enable }

// ConfigureLoggingWarn toggles warn-level logging.
func (l *Interface) ConfigureLoggingWarn(enable bool) { l.warnEnabled = enable }

// SetLoggingLevel is a convenience setter matching the three knobs above:
// 0=warn only, 1=+info, 2=+debug.
func (l *Interface) SetLoggingLevel(level int) {
	l.warnEnabled = true
	l.infoEnabled = level >= 1
	l.debugEnabled = level >= 2
}

// GetDebug reports whether debug logging is enabled.
func (l *Interface) GetDebug() bool { return l.debugEnabled }

// GetComponentName returns the top-level component name.
func (l *Interface) GetComponentName() string { return l.componentName }

// GetSubcomponentName returns the subcomponent name, if any.
func (l *Interface) GetSubcomponentName() string { return l.subcomponentName }

// GetFullName returns "component" or "component.subcomponent".
func (l *Interface) GetFullName() string {
	if l.subcomponentName == "" {
		return l.componentName
	}
	return l.componentName + "." + l.subcomponentName
}

// SetSubcomponentName updates the subcomponent name and refreshes the
// bound logrus fields.
func (l *Interface) SetSubcomponentName(name string) {
	l.subcomponentName = name
	l.entry = logrus.WithField("component", l.GetFullName())
}

func (l *Interface) dbg(s string)   { if l.debugEnabled { l.entry.Debug(s) } }
func (l *Interface) info(s string)  { if l.infoEnabled { l.entry.Info(s) } }
func (l *Interface) warn(s string)  { if l.warnEnabled { l.entry.Warn(s) } }
func (l *Interface) err(s string)   { l.entry.Error(s) }
func (l *Interface) fatal(s string) { l.entry.Fatal(s) }

// Dbg logs a debug-scoped message (exported so owning packages can call it
// without exposing the lowercase original-style names, which Go forbids
// across packages).
func (l *Interface) Dbg(s string) { l.dbg(s) }

// Info logs an info-scoped message.
func (l *Interface) Info(s string) { l.info(s) }

// Warn logs a warn-scoped message.
func (l *Interface) Warn(s string) { l.warn(s) }

// Err logs an error-scoped message.
func (l *Interface) Err(s string) { l.err(s) }

// Fatal logs and aborts the process, matching the original's fatal().
func (l *Interface) Fatal(s string) { l.fatal(s) }

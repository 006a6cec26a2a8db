// Package enginelog is the Collision Engine's logging facade: a small
// interface over stdlib log.Logger plus a no-op fallback so the engine
// never has to nil-check its logger. Unlike the teacher's gekko.Logger,
// which is handed out by an ECS resource lookup (app.Logger() scanning
// app.resources for anything satisfying the interface) because any system
// in an arbitrary app graph might log, this engine has exactly one fixed
// pipeline (integrate/reorder/build_cell_ids/radix_sort/
// build_collision_cells/solve_colours, the same vocabulary engine.Profiler
// tracks) -- so the facade here is built around WithStage, scoping a
// logger to one of those stages, rather than a generic resource bag.
package enginelog

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Logger is implemented by DefaultLogger and the no-op logger returned by
// NewNopLogger (and by Or when no Logger is supplied).
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// WithStage returns a Logger whose lines are tagged with the given
	// pipeline stage name, so a warning logged from inside the radix-sort
	// dispatch reads "[radix_sort] ..." instead of needing every call site
	// to embed the stage name in its own format string.
	WithStage(stage string) Logger
}

// DefaultLogger writes to stdout/stderr with a fixed prefix, guarding the
// debug flag with a mutex since dispatch can log from multiple goroutines
// in a host application embedding the engine.
type DefaultLogger struct {
	mu     sync.Mutex
	debug  bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

// NewDefaultLogger returns a Logger that writes to stdout/stderr, tagging
// every line with prefix.
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(os.Stdout, "", flags),
		err:    log.New(os.Stderr, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

// line formats one log line as "[prefix] [stage] LEVEL: message", omitting
// either bracket when empty so a bare NewDefaultLogger("", false) still
// reads cleanly.
func (l *DefaultLogger) line(stage, level, format string, args ...any) string {
	var tag string
	if l.prefix != "" {
		tag += "[" + l.prefix + "] "
	}
	if stage != "" {
		tag += "[" + stage + "] "
	}
	return fmt.Sprintf("%s%s: %s", tag, level, fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) debugf(stage, format string, args ...any) {
	l.mu.Lock()
	dbg := l.debug
	l.mu.Unlock()
	if !dbg {
		return
	}
	l.out.Print(l.line(stage, "DEBUG", format, args...))
}

func (l *DefaultLogger) infof(stage, format string, args ...any) {
	l.out.Print(l.line(stage, "INFO", format, args...))
}

func (l *DefaultLogger) warnf(stage, format string, args ...any) {
	l.err.Print(l.line(stage, "WARN", format, args...))
}

func (l *DefaultLogger) errorf(stage, format string, args ...any) {
	l.err.Print(l.line(stage, "ERROR", format, args...))
}

func (l *DefaultLogger) Debugf(format string, args ...any) { l.debugf("", format, args...) }
func (l *DefaultLogger) Infof(format string, args ...any)  { l.infof("", format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.warnf("", format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.errorf("", format, args...) }

// WithStage returns a logger that shares this one's debug flag and
// destination writers but tags every line with stage.
func (l *DefaultLogger) WithStage(stage string) Logger {
	return &stageLogger{parent: l, stage: stage}
}

// stageLogger scopes a DefaultLogger to one pipeline stage. It holds no
// state of its own beyond the stage name, so SetDebug toggled on either
// the parent or a sibling stage logger is visible to all of them.
type stageLogger struct {
	parent *DefaultLogger
	stage  string
}

func (s *stageLogger) DebugEnabled() bool            { return s.parent.DebugEnabled() }
func (s *stageLogger) SetDebug(enabled bool)         { s.parent.SetDebug(enabled) }
func (s *stageLogger) WithStage(stage string) Logger { return &stageLogger{parent: s.parent, stage: stage} }
func (s *stageLogger) Debugf(format string, args ...any) { s.parent.debugf(s.stage, format, args...) }
func (s *stageLogger) Infof(format string, args ...any)  { s.parent.infof(s.stage, format, args...) }
func (s *stageLogger) Warnf(format string, args ...any)  { s.parent.warnf(s.stage, format, args...) }
func (s *stageLogger) Errorf(format string, args ...any) { s.parent.errorf(s.stage, format, args...) }

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything. Used whenever a
// caller does not supply one, so engine code never needs a nil check.
func NewNopLogger() Logger { return &nopLogger{} }

func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}
func (n *nopLogger) WithStage(stage string) Logger     { return n }

// Or returns l if non-nil, otherwise a no-op logger.
func Or(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

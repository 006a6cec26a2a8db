package enginelog

import "testing"

func TestOrReturnsNopForNil(t *testing.T) {
	l := Or(nil)
	if l == nil {
		t.Fatal("Or(nil) must never return nil")
	}
	if l.DebugEnabled() {
		t.Fatal("nop logger must report debug disabled")
	}
	// Must not panic.
	l.Debugf("x=%d", 1)
	l.Infof("x=%d", 1)
	l.Warnf("x=%d", 1)
	l.Errorf("x=%d", 1)
}

func TestOrPassesThroughNonNil(t *testing.T) {
	d := NewDefaultLogger("test", false)
	if Or(d) != Logger(d) {
		t.Fatal("Or must pass through a non-nil logger unchanged")
	}
}

func TestDefaultLoggerDebugToggle(t *testing.T) {
	d := NewDefaultLogger("test", false)
	if d.DebugEnabled() {
		t.Fatal("expected debug disabled initially")
	}
	d.SetDebug(true)
	if !d.DebugEnabled() {
		t.Fatal("expected debug enabled after SetDebug(true)")
	}
}

package config

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	c := New()
	if c.ReorderInterval != 4*time.Second {
		t.Fatalf("expected default reorder interval 4s, got %v", c.ReorderInterval)
	}
	if c.InitialCapacity <= 0 {
		t.Fatalf("expected positive initial capacity, got %d", c.InitialCapacity)
	}
}

func TestCellSizeUsesPackingConstant(t *testing.T) {
	c := New().WithMaxRadius(10)
	want := float32(2.2 * 10)
	if got := c.CellSize(); got != want {
		t.Fatalf("CellSize() = %v, want %v", got, want)
	}
}

func TestChainedWith(t *testing.T) {
	c := New().WithWorldSize(100, 200).WithGravity(5).WithInitialCapacity(10)
	if c.WorldWidth != 100 || c.WorldHeight != 200 {
		t.Fatalf("WithWorldSize not applied: %+v", c)
	}
	if c.Gravity != 5 {
		t.Fatalf("WithGravity not applied: %+v", c)
	}
	if c.InitialCapacity != 10 {
		t.Fatalf("WithInitialCapacity not applied: %+v", c)
	}
}

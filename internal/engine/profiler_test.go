package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerRecordsScopesInOrder(t *testing.T) {
	p := NewProfiler()

	p.BeginScope("integrate")
	p.EndScope("integrate")
	p.BeginScope("radix_sort")
	p.EndScope("radix_sort")
	p.SetCount("particles", 128)

	require.Equal(t, []string{"integrate", "radix_sort"}, p.Order)

	stats := p.GetStatsString()
	assert.Contains(t, stats, "integrate")
	assert.Contains(t, stats, "radix_sort")
	assert.Contains(t, stats, "particles")
}

func TestProfilerResetClearsDurationsNotOrder(t *testing.T) {
	p := NewProfiler()
	p.BeginScope("integrate")
	p.EndScope("integrate")

	p.Reset()

	assert.Zero(t, p.Scopes["integrate"])
	assert.Equal(t, []string{"integrate"}, p.Order)
}

func TestProfilerEndScopeWithoutBeginIsIgnored(t *testing.T) {
	p := NewProfiler()
	p.EndScope("never-started")
	_, ok := p.Scopes["never-started"]
	assert.False(t, ok)
}

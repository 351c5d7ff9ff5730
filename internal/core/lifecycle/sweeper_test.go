package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Sweep Tests
// =============================================================================

func toNameSet(names ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func TestSweep_RemovesOnlyOrphans(t *testing.T) {
	// Live: web and cache-old; declared: web; empty down ignore list.
	rt := newFakeRuntime()
	rt.running = []string{"web", "cache-old"}
	s := NewSweeper(rt, nil)

	removed := s.Sweep(context.Background(), toNameSet("web"), toNameSet())

	assert.Equal(t, []string{"cache-old"}, removed)
	assert.Equal(t, []string{"cache-old"}, rt.removeCalls)
}

func TestSweep_NeverRemovesDeclaredOrIgnored(t *testing.T) {
	rt := newFakeRuntime()
	rt.running = []string{"web", "db", "vault"}
	s := NewSweeper(rt, nil)

	removed := s.Sweep(context.Background(), toNameSet("web", "db"), toNameSet("vault"))

	assert.Empty(t, removed)
	assert.Empty(t, rt.removeCalls)
}

func TestSweep_IgnoredOnDownExemptEvenWhenUndeclared(t *testing.T) {
	rt := newFakeRuntime()
	rt.running = []string{"infra-proxy", "stray"}
	s := NewSweeper(rt, nil)

	removed := s.Sweep(context.Background(), toNameSet(), toNameSet("infra-proxy"))

	assert.Equal(t, []string{"stray"}, removed)
}

func TestSweep_EachOrphanRemovedExactlyOnce(t *testing.T) {
	rt := newFakeRuntime()
	rt.running = []string{"a", "b", "c"}
	s := NewSweeper(rt, nil)

	removed := s.Sweep(context.Background(), toNameSet("a"), toNameSet())

	assert.ElementsMatch(t, []string{"b", "c"}, removed)
	assert.Len(t, rt.removeCalls, 2)
}

func TestSweep_RemovalFailureDoesNotAbortSweep(t *testing.T) {
	rt := newFakeRuntime()
	rt.running = []string{"a", "b"}
	rt.removeErr["a"] = errors.New("device busy")
	s := NewSweeper(rt, nil)

	removed := s.Sweep(context.Background(), toNameSet(), toNameSet())

	assert.Equal(t, []string{"b"}, removed)
	assert.Equal(t, []string{"a", "b"}, rt.removeCalls)
}

func TestSweep_ListFailureReturnsNothing(t *testing.T) {
	rt := newFakeRuntime()
	rt.listErr = errors.New("daemon gone")
	s := NewSweeper(rt, nil)

	removed := s.Sweep(context.Background(), toNameSet("web"), toNameSet())

	assert.Nil(t, removed)
	assert.Empty(t, rt.removeCalls)
}

func TestSweep_NoOrphansNoRemovals(t *testing.T) {
	rt := newFakeRuntime()
	rt.running = []string{"web"}
	s := NewSweeper(rt, nil)

	removed := s.Sweep(context.Background(), toNameSet("web"), toNameSet())

	assert.Nil(t, removed)
	assert.Empty(t, rt.removeCalls)
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/landarea-core/internal/conversion"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestManager(opts Options) (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	m := NewManager(conversion.DefaultEngine(), opts)
	m.now = clock.Now
	return m, clock
}

func TestManager_CreateGetDelete(t *testing.T) {
	m, _ := newTestManager(Options{})

	s, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.ID() == "" {
		t.Fatal("Create() returned empty ID")
	}

	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	if err := m.Delete(s.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrSessionNotFound", err)
	}
	if err := m.Delete(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_UniqueIDs(t *testing.T) {
	m, _ := newTestManager(Options{})
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		s, err := m.Create()
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[s.ID()] {
			t.Fatalf("duplicate session ID %s", s.ID())
		}
		seen[s.ID()] = true
	}
}

func TestManager_MaxSessions(t *testing.T) {
	m, _ := newTestManager(Options{MaxSessions: 2})

	for i := 0; i < 2; i++ {
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create() %d error = %v", i, err)
		}
	}
	if _, err := m.Create(); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("Create() over limit error = %v, want ErrTooManySessions", err)
	}
}

func TestManager_Expiry(t *testing.T) {
	m, clock := newTestManager(Options{IdleTTL: time.Minute})

	idle, _ := m.Create()
	active, _ := m.Create()

	clock.Advance(45 * time.Second)
	active.SetInput("5")
	clock.Advance(30 * time.Second)

	if _, err := m.Get(idle.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(idle) error = %v, want ErrSessionNotFound", err)
	}
	if _, err := m.Get(active.ID()); err != nil {
		t.Errorf("Get(active) error = %v", err)
	}

	if removed := m.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m, _ := newTestManager(Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestManager_ConcurrentSessions(t *testing.T) {
	m, _ := newTestManager(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Create()
			if err != nil {
				t.Errorf("Create() error = %v", err)
				return
			}
			s.SetInput("7")
			s.Swap()
			m.Sweep()
			_, _ = m.Get(s.ID())
		}()
	}
	wg.Wait()

	if m.Len() != 16 {
		t.Errorf("Len() = %d, want 16", m.Len())
	}
}

// switchableConverter changes its tables between calls, like a registry
// after a catalog refresh.
type switchableConverter struct {
	mu     sync.Mutex
	engine *conversion.Engine
}

func (c *switchableConverter) Convert(req conversion.Request) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Convert(req)
}

func (c *switchableConverter) set(e *conversion.Engine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine = e
}

func TestManager_RecomputeAll(t *testing.T) {
	conv := &switchableConverter{engine: conversion.DefaultEngine()}
	m := NewManager(conv, Options{})

	s, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s.Apply(Patch{From: strPtr("katha"), To: strPtr("sqmeter")}) //nolint:errcheck // Valid keys
	if got := s.State().Output; got != "66.89" {
		t.Fatalf("Output = %q, want 66.89", got)
	}

	c := conversion.DefaultCatalog()
	c[conversion.RegionStandard][conversion.UnitKatha] = 100
	e, err := conversion.NewEngine(c)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	conv.set(e)

	if got := s.State().Output; got != "66.89" {
		t.Errorf("Output before recompute = %q, want stale 66.89", got)
	}
	if n := m.RecomputeAll(); n != 1 {
		t.Errorf("RecomputeAll() = %d, want 1", n)
	}
	if got := s.State().Output; got != "100.00" {
		t.Errorf("Output after recompute = %q, want 100.00", got)
	}
}

func TestManager_AttachedSessionSurvivesSweep(t *testing.T) {
	conv := &switchableConverter{engine: conversion.DefaultEngine()}
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	m := NewManager(conv, Options{IdleTTL: time.Minute})
	m.now = clock.Now

	s, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s.Apply(Patch{From: strPtr("katha"), To: strPtr("sqmeter")}) //nolint:errcheck // Valid keys
	release := s.Attach()

	clock.Advance(2 * time.Minute)
	if n := m.Sweep(); n != 0 {
		t.Fatalf("Sweep() = %d, want 0 while attached", n)
	}
	if _, err := m.Get(s.ID()); err != nil {
		t.Fatalf("Get() attached session error = %v", err)
	}

	c := conversion.DefaultCatalog()
	c[conversion.RegionStandard] = c[conversion.RegionBankaBihar].Clone()
	e, err := conversion.NewEngine(c)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	conv.set(e)
	if n := m.RecomputeAll(); n != 1 {
		t.Fatalf("RecomputeAll() = %d, want 1", n)
	}
	if got := s.State().Output; got != "126.46" {
		t.Errorf("Output = %q, want 126.46 from the new tables", got)
	}

	// Once released, the idle clock restarts from the release.
	release()
	release()
	clock.Advance(30 * time.Second)
	if n := m.Sweep(); n != 0 {
		t.Errorf("Sweep() right after release = %d, want 0", n)
	}
	clock.Advance(time.Minute)
	if n := m.Sweep(); n != 1 {
		t.Errorf("Sweep() after TTL = %d, want 1", n)
	}
}

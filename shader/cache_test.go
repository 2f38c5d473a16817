package shader

import (
	"errors"
	"sync"
	"testing"
)

func TestCacheLinksOnce(t *testing.T) {
	vs, fs := builtinSources(t)
	c := NewCache()

	p1, err := c.Program("halftone", vs, fs)
	if err != nil {
		t.Fatalf("first Program: %v", err)
	}
	p2, err := c.Program("halftone", vs, fs)
	if err != nil {
		t.Fatalf("second Program: %v", err)
	}
	if p1 != p2 {
		t.Error("same name and sources returned distinct programs")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if got, ok := c.Lookup("halftone"); !ok || got != p1 {
		t.Error("Lookup did not return the cached program")
	}
}

func TestCacheNameCollision(t *testing.T) {
	vs, fs := builtinSources(t)
	c := NewCache()
	if _, err := c.Program("halftone", vs, fs); err != nil {
		t.Fatalf("Program: %v", err)
	}

	_, err := c.Program("halftone", vs, fs+"\n// variant\n")
	if !errors.Is(err, ErrNameCollision) {
		t.Fatalf("error = %v, want ErrNameCollision", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after collision, want 1", c.Len())
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	c := NewCache()
	if _, err := c.Program("broken", "fn x( {", ""); !errors.Is(err, ErrCompile) {
		t.Fatalf("error = %v, want ErrCompile", err)
	}
	if _, ok := c.Lookup("broken"); ok {
		t.Error("failed link was cached")
	}
}

func TestCacheConcurrentUse(t *testing.T) {
	vs, fs := builtinSources(t)
	c := NewCache()

	var wg sync.WaitGroup
	progs := make([]*Program, 8)
	for i := range progs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Program("halftone", vs, fs)
			if err != nil {
				t.Errorf("Program: %v", err)
				return
			}
			progs[i] = p
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(progs); i++ {
		if progs[i] != progs[0] {
			t.Fatalf("goroutine %d got a different program", i)
		}
	}
}

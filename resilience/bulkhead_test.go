package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBulkhead_AllowsUpToLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2})

	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func() error {
				<-release
				return nil
			})
		}()
	}

	for b.InUse() != 2 {
		time.Sleep(time.Millisecond)
	}

	err := b.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}

	close(release)
	wg.Wait()

	if b.InUse() != 0 {
		t.Errorf("slots leaked: %d in use", b.InUse())
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: time.Second})

	release := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			<-release
			return nil
		})
	}()
	for b.InUse() != 1 {
		time.Sleep(time.Millisecond)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	err := b.Execute(context.Background(), func() error { return nil })
	if err != nil {
		t.Errorf("waiting call should have acquired the freed slot: %v", err)
	}
}

func TestBulkhead_WaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: 5 * time.Millisecond})

	release := make(chan struct{})
	defer close(release)
	go func() {
		_ = b.Execute(context.Background(), func() error {
			<-release
			return nil
		})
	}()
	for b.InUse() != 1 {
		time.Sleep(time.Millisecond)
	}

	err := b.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
}

func TestBulkhead_OnReject(t *testing.T) {
	var rejected string
	b := NewBulkhead(BulkheadConfig{
		Name:          "ledger",
		MaxConcurrent: 1,
		OnReject:      func(name string) { rejected = name },
	})

	release := make(chan struct{})
	defer close(release)
	go func() {
		_ = b.Execute(context.Background(), func() error {
			<-release
			return nil
		})
	}()
	for b.InUse() != 1 {
		time.Sleep(time.Millisecond)
	}

	_ = b.Execute(context.Background(), func() error { return nil })
	if rejected != "ledger" {
		t.Errorf("OnReject not called, got %q", rejected)
	}
}

func TestBulkhead_Available(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 3})
	if b.Available() != 3 {
		t.Errorf("fresh bulkhead: %d available", b.Available())
	}
}

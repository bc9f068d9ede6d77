package observe

import (
	"sync"
	"testing"
)

func TestLoadReturnsLatest(t *testing.T) {
	v := NewValue(1)
	if got, ver := v.Load(); got != 1 || ver != 0 {
		t.Fatalf("Load() = %d, %d", got, ver)
	}
	v.Publish(2)
	v.Publish(3)
	if got, ver := v.Load(); got != 3 || ver != 2 {
		t.Fatalf("Load() = %d, %d; want 3, 2", got, ver)
	}
}

func TestSubscribeReceivesCurrentThenUpdates(t *testing.T) {
	v := NewValue("idle")
	ch, cancel := v.Subscribe()
	defer cancel()

	if got := <-ch; got != "idle" {
		t.Fatalf("first value = %q", got)
	}
	v.Publish("active")
	if got := <-ch; got != "active" {
		t.Fatalf("second value = %q", got)
	}
}

func TestSlowSubscriberSeesLatestOnly(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	for i := 1; i <= 100; i++ {
		v.Publish(i)
	}
	if got := <-ch; got != 100 {
		t.Fatalf("slow subscriber got %d, want 100", got)
	}
	select {
	case got := <-ch:
		t.Fatalf("unexpected buffered value %d", got)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	<-ch
	cancel()
	cancel()

	if v.Subscribers() != 0 {
		t.Fatalf("Subscribers() = %d after cancel", v.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	v.Publish(1)
}

func TestConcurrentPublishAndLoad(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				v.Publish(i)
				v.Load()
			}
		}()
	}
	wg.Wait()

	if _, ver := v.Load(); ver != 2000 {
		t.Fatalf("version = %d, want 2000", ver)
	}
	<-ch
}

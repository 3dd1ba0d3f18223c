package engine

import "testing"

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []int
	bus.Subscribe(KindPhaseEntered, func(Event) { got = append(got, 1) })
	bus.Subscribe(KindPhaseEntered, func(Event) { got = append(got, 2) })
	bus.Subscribe(KindPhaseEntered, func(Event) { got = append(got, 3) })

	bus.Publish(PhaseEntered{Phase: "intro"})

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("expected delivery order [1 2 3], got %v", got)
	}
}

func TestPublishOnlyReachesMatchingKind(t *testing.T) {
	bus := NewBus()
	entered := 0
	exited := 0
	bus.Subscribe(KindPhaseEntered, func(Event) { entered++ })
	bus.Subscribe(KindPhaseExited, func(Event) { exited++ })

	bus.Publish(PhaseExited{Phase: "intro"})

	if entered != 0 {
		t.Fatalf("enter handler should not fire for exit events, fired %d times", entered)
	}
	if exited != 1 {
		t.Fatalf("expected exactly one exit delivery, got %d", exited)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsub := bus.Subscribe(KindModuleCompleted, func(Event) { calls++ })

	bus.Publish(ModuleCompleted{})
	unsub()
	bus.Publish(ModuleCompleted{})

	if calls != 1 {
		t.Fatalf("expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestSubscribeDuringPublishMissesInFlightEvent(t *testing.T) {
	bus := NewBus()
	lateCalls := 0
	bus.Subscribe(KindPhaseEntered, func(Event) {
		bus.Subscribe(KindPhaseEntered, func(Event) { lateCalls++ })
	})

	bus.Publish(PhaseEntered{Phase: "intro"})
	if lateCalls != 0 {
		t.Fatal("handler subscribed mid-publish must not receive the in-flight event")
	}

	bus.Publish(PhaseEntered{Phase: "setup"})
	if lateCalls != 1 {
		t.Fatalf("late handler should receive subsequent events, got %d calls", lateCalls)
	}
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	bus := NewBus()
	reached := false
	bus.Subscribe(KindPhaseEntered, func(Event) { panic("boom") })
	bus.Subscribe(KindPhaseEntered, func(Event) { reached = true })

	bus.Publish(PhaseEntered{Phase: "intro"})

	if !reached {
		t.Fatal("a panicking handler must not block delivery to later handlers")
	}
}

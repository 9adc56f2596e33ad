package engine

import "testing"

func TestBrokerUnsubscribe(t *testing.T) {
	broker := NewBroker()
	count := 0
	unsubscribe := broker.OnPosition(func(int) { count++ })
	broker.notifyPosition(1)
	unsubscribe()
	broker.notifyPosition(2)
	if count != 1 {
		t.Errorf("expected 1 delivery after unsubscribe, got %d", count)
	}
}

func TestBrokerMultipleListeners(t *testing.T) {
	broker := NewBroker()
	a, b := 0, 0
	broker.OnAlert(func(Alert) { a++ })
	broker.OnAlert(func(alert Alert) {
		b++
		if alert.Name != "Test" || alert.Priority != Warning {
			t.Errorf("unexpected alert %+v", alert)
		}
	})
	broker.Alert("Test", "message", Warning)
	if a != 1 || b != 1 {
		t.Errorf("both listeners should fire, got %d and %d", a, b)
	}
}

func TestBrokerUnsubscribeDuringCallback(t *testing.T) {
	broker := NewBroker()
	var unsubscribe func()
	count := 0
	unsubscribe = broker.OnPlaybackState(func(bool) {
		count++
		unsubscribe()
	})
	broker.notifyPlayback(true)
	broker.notifyPlayback(false)
	if count != 1 {
		t.Errorf("expected 1 delivery, got %d", count)
	}
}

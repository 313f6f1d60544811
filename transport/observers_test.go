package transport

import "testing"

func TestObserversOrderedDelivery(t *testing.T) {
	var reg observers[int]
	var order []string
	reg.subscribe(func(v int) { order = append(order, "first") })
	reg.subscribe(func(v int) { order = append(order, "second") })
	reg.subscribe(func(v int) { order = append(order, "third") })

	reg.notify(1)

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("got %d deliveries, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("delivery %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestObserversUnsubscribe(t *testing.T) {
	var reg observers[string]
	var got []string
	reg.subscribe(func(v string) { got = append(got, "a:"+v) })
	unsub := reg.subscribe(func(v string) { got = append(got, "b:"+v) })
	reg.subscribe(func(v string) { got = append(got, "c:"+v) })

	unsub()
	unsub() // disposer is safe to call twice
	reg.notify("x")

	if len(got) != 2 || got[0] != "a:x" || got[1] != "c:x" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestObserversUnsubscribeDuringNotify(t *testing.T) {
	var reg observers[int]
	count := 0
	var unsub func()
	unsub = reg.subscribe(func(v int) {
		count++
		unsub()
	})

	reg.notify(1)
	reg.notify(2)

	if count != 1 {
		t.Fatalf("handler ran %d times, want 1", count)
	}
}

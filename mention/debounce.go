package mention

import (
	"sync"
	"time"
)

// debouncer coalesces rapid reschedules into a single trailing-edge fire.
// Every Schedule or Cancel advances the generation; a fire only runs its
// callback when its generation is still current, and completion paths
// compare generations again to discard work superseded mid-flight.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// Schedule arms the timer, replacing any pending fire, and returns the
// generation assigned to this schedule.
func (d *debouncer) Schedule(fn func(gen uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.gen == gen
		d.mu.Unlock()
		if current {
			fn(gen)
		}
	})
	return gen
}

// Cancel drops any pending fire and invalidates in-flight completions.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Generation reports the current generation.
func (d *debouncer) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

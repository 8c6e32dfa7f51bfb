package gui

import (
	"fmt"
	"sync"
	"time"
)

// Stopwatch reports the time since it started once per interval until
// stopped.
type Stopwatch struct {
	start    time.Time
	interval time.Duration
	onTick   func(elapsed time.Duration)
	done     chan struct{}
	once     sync.Once
}

func StartStopwatch(interval time.Duration, onTick func(elapsed time.Duration)) *Stopwatch {
	sw := &Stopwatch{
		start:    time.Now(),
		interval: interval,
		onTick:   onTick,
		done:     make(chan struct{}),
	}
	go sw.run()
	return sw
}

func (sw *Stopwatch) run() {
	tick := time.NewTicker(sw.interval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			sw.onTick(time.Since(sw.start))
		case <-sw.done:
			return
		}
	}
}

func (sw *Stopwatch) Elapsed() time.Duration {
	return time.Since(sw.start)
}

func (sw *Stopwatch) Stop() {
	sw.once.Do(func() { close(sw.done) })
}

// formatElapsed renders d as m:ss.
func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

/*
 * pandos - Pseudo-clock driver delivering PSECOND pulses on a channel.
 *
 * Copyright 2025, The PandOS Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package clock drives the interval timer the nucleus treats as line 2's
// pseudo-clock: a goroutine ticking every PSECOND microseconds, delivering a
// Pulse on a channel that bootstrap's Machine.Tick drains without blocking.
// This is the real-time counterpart of the logical,
// manually-advanced clock a deterministic kernel test uses instead.
package clock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rgriswold/pandos/internal/kconst"
)

// Pulse is sent once per pseudo-clock tick.
type Pulse struct{}

// Clock ticks at a fixed interval and delivers Pulse values on C until
// Shutdown is called. Enable/Disable let the kernel silence it while the
// simulated processor itself is halted.
type Clock struct {
	C       chan Pulse
	wg      sync.WaitGroup
	enable  chan bool
	done    chan struct{}
	ticker  *time.Ticker
	period  time.Duration
}

// New returns a Clock ticking every PSECOND microseconds, started
// immediately.
func New() *Clock {
	return NewPeriod(time.Duration(kconst.PseudoSec) * time.Microsecond)
}

// NewPeriod returns a Clock ticking every period; tests that want to
// observe several pulses quickly use a shorter period than PSECOND.
func NewPeriod(period time.Duration) *Clock {
	c := &Clock{
		C:      make(chan Pulse, 1),
		enable: make(chan bool, 1),
		done:   make(chan struct{}),
		period: period,
	}
	c.wg.Add(1)
	go c.run()
	c.enable <- true
	return c
}

// Disable stops delivering pulses without shutting the goroutine down.
func (c *Clock) Disable() {
	c.enable <- false
}

// Enable resumes delivering pulses.
func (c *Clock) Enable() {
	c.enable <- true
}

// Shutdown stops the Clock's goroutine and waits for it to exit, logging a
// warning if it does not do so within a second.
func (c *Clock) Shutdown() {
	close(c.done)
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("clock: timed out waiting for shutdown")
	}
}

func (c *Clock) run() {
	defer c.wg.Done()
	c.ticker = time.NewTicker(c.period)
	defer c.ticker.Stop()
	running := false

	for {
		select {
		case <-c.ticker.C:
			if running {
				select {
				case c.C <- Pulse{}:
				default: // a pulse is already pending; the kernel coalesces
				}
			}
		case running = <-c.enable:
		case <-c.done:
			return
		}
	}
}

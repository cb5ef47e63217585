package clock

/*
 * pandos - Tests for the pseudo-clock driver.
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

import (
	"testing"
	"time"
)

func TestClockDeliversPulses(t *testing.T) {
	c := NewPeriod(5 * time.Millisecond)
	defer c.Shutdown()

	select {
	case <-c.C:
	case <-time.After(time.Second):
		t.Fatal("no pulse delivered within 1s")
	}
}

func TestClockDisableStopsPulses(t *testing.T) {
	c := NewPeriod(5 * time.Millisecond)
	defer c.Shutdown()

	select {
	case <-c.C:
	case <-time.After(time.Second):
		t.Fatal("no pulse delivered before disable")
	}

	c.Disable()
	// Drain any pulse already in flight.
	select {
	case <-c.C:
	case <-time.After(20 * time.Millisecond):
	}

	select {
	case <-c.C:
		t.Fatal("pulse delivered after Disable")
	case <-time.After(50 * time.Millisecond):
	}
}

package devsim

/*
 * pandos - Tests for the simulated device registers.
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

import "testing"

func TestTerminalTransmitSetsOKCharTrans(t *testing.T) {
	term := NewTerminal()
	term.StartTransmit('A')

	if s := term.Transmit.ReadStatus(); s != StatusOKCharTrans {
		t.Errorf("Transmit.Status got: %d expected: %d", s, StatusOKCharTrans)
	}
	b, ok := term.Out()
	if !ok || b != 'A' {
		t.Errorf("Out() got: %q, %v expected: 'A', true", b, ok)
	}
}

func TestTerminalReceiveDeliversQueuedByte(t *testing.T) {
	term := NewTerminal()
	term.Type('Z')
	term.StartReceive()

	if s := term.Receive.ReadStatus(); s != StatusOKCharTrans {
		t.Errorf("Receive.Status got: %d expected: %d", s, StatusOKCharTrans)
	}
	if term.Receive.Data0 != uint32('Z') {
		t.Errorf("Receive.Data0 got: %d expected: %d", term.Receive.Data0, 'Z')
	}
}

func TestTerminalReceiveWithNoInputStaysBusy(t *testing.T) {
	term := NewTerminal()
	term.StartReceive()
	if s := term.Receive.ReadStatus(); s != StatusBusy {
		t.Errorf("Receive.Status with no queued input got: %d expected: %d", s, StatusBusy)
	}
}

func TestPrinterPrintsAndSignalsReady(t *testing.T) {
	p := NewPrinter()
	p.StartPrint('x')
	if s := p.ReadStatus(); s != StatusReady {
		t.Errorf("Printer.Status got: %d expected: %d", s, StatusReady)
	}
	b, ok := p.Printed()
	if !ok || b != 'x' {
		t.Errorf("Printed() got: %q, %v expected: 'x', true", b, ok)
	}
}

func TestFlashRoundTrip(t *testing.T) {
	f := NewFlash(4, 16)
	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = byte(i)
	}
	f.StartWrite(2, buf)
	if s := f.ReadStatus(); s != StatusReady {
		t.Fatalf("StartWrite status got: %d expected: %d", s, StatusReady)
	}

	out := make([]byte, 16)
	f.StartRead(2, out)
	if s := f.ReadStatus(); s != StatusReady {
		t.Fatalf("StartRead status got: %d expected: %d", s, StatusReady)
	}
	for i := range buf {
		if out[i] != buf[i] {
			t.Fatalf("flash round trip mismatch at byte %d: got %d expected %d", i, out[i], buf[i])
		}
	}
}

func TestFlashOutOfRangeBlockIsNotReady(t *testing.T) {
	f := NewFlash(2, 8)
	buf := make([]byte, 8)
	f.StartRead(99, buf)
	if s := f.ReadStatus(); s != StatusBusy {
		t.Errorf("out-of-range StartRead status got: %d expected: %d", s, StatusBusy)
	}
}

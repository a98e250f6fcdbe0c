/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
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

package node

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// WaitResult is the outcome of Node.Wait.
type WaitResult uint8

const (
	// Tick means the requested duration elapsed with no interrupt.
	Tick WaitResult = iota
	// TerminationRequested means a process-wide interrupt (SIGINT/SIGTERM)
	// arrived during the wait.
	TerminationRequested
)

var (
	interruptOnce sync.Once
	interruptCh   = make(chan struct{})
)

// installInterruptHandler arms a single, process-wide signal handler the
// first time any Node waits; subsequent calls are no-ops.
func installInterruptHandler() {
	interruptOnce.Do(func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			close(interruptCh)
		}()
	})
}

// Wait sleeps up to duration on the process-wide interrupt channel. It
// returns TerminationRequested as soon as a SIGINT/SIGTERM-equivalent
// arrives, or Tick once duration elapses first.
func (n *Node) Wait(duration time.Duration) WaitResult {
	installInterruptHandler()

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-interruptCh:
		return TerminationRequested
	case <-timer.C:
		return Tick
	}
}

/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package aggregator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// StartStop is the minimal run/stop/status contract the aggregator needs from
// its background goroutine. It is satisfied by newLifecycle below.
type StartStop interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
	ErrorsLast() error
	ErrorsList() []error
}

// lifecycle runs fct in a background goroutine started by Start and stopped by
// Stop, tracking uptime and the errors fct returned (Stop returns the error of
// onClose without recording it).
type lifecycle struct {
	fct     func(ctx context.Context) error
	onClose func(ctx context.Context) error

	mu      sync.Mutex
	cancel  context.CancelFunc
	running atomic.Bool
	started time.Time
	errs    []error
}

func newLifecycle(fct func(ctx context.Context) error, onClose func(ctx context.Context) error) *lifecycle {
	return &lifecycle{fct: fct, onClose: onClose}
}

func (l *lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running.Load() {
		l.mu.Unlock()
		return ErrStillRunning
	}

	if ctx == nil {
		ctx = context.Background()
	}
	x, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.started = time.Now()
	l.running.Store(true)

	sig := make(chan error, 1)
	l.mu.Unlock()

	go func() {
		err := l.fct(x)

		l.mu.Lock()
		l.running.Store(false)
		if err != nil {
			l.errs = append(l.errs, err)
		}
		l.mu.Unlock()

		select {
		case sig <- err:
		default:
		}
	}()

	// give the goroutine a chance to reach its own ready-signal before
	// returning, matching the short grace period Start callers expect.
	select {
	case err := <-sig:
		return err
	case <-time.After(10 * time.Millisecond):
		return nil
	}
}

func (l *lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	cancel := l.cancel
	onClose := l.onClose
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if onClose != nil {
		err = onClose(ctx)
	}

	l.running.Store(false)
	return err
}

func (l *lifecycle) Restart(ctx context.Context) error {
	if e := l.Stop(ctx); e != nil {
		return e
	}
	time.Sleep(10 * time.Millisecond)
	return l.Start(ctx)
}

func (l *lifecycle) IsRunning() bool {
	return l.running.Load()
}

func (l *lifecycle) Uptime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running.Load() || l.started.IsZero() {
		return 0
	}
	return time.Now().Sub(l.started)
}

func (l *lifecycle) ErrorsLast() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.errs) == 0 {
		return nil
	}
	return l.errs[len(l.errs)-1]
}

func (l *lifecycle) ErrorsList() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}


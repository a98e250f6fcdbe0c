/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2021 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package mapCloser

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync/atomic"
	"time"

	libatm "github.com/ipcmesh/ipcmesh/atomic"
)

// closer tracks every io.Closer handed to it under a monotonic index, so that
// the node/service/port DAG can release its owned resources deterministically
// without each level re-implementing its own bookkeeping.
type closer struct {
	c *atomic.Bool
	f func()
	i *atomic.Uint64
	x libatm.MapTyped[uint64, io.Closer]
	d context.Context
}

func (o *closer) idx() uint64 {
	return o.i.Load()
}

func (o *closer) idxInc() uint64 {
	o.i.Add(1)
	return o.idx()
}

func (o *closer) Add(clo ...io.Closer) {
	if o == nil || o.c.Load() {
		return
	}

	for _, c := range clo {
		o.x.Store(o.idxInc(), c)
	}
}

func (o *closer) Get() []io.Closer {
	res := make([]io.Closer, 0)

	if o == nil || o.c.Load() {
		return res
	}

	o.x.Range(func(_ uint64, val io.Closer) bool {
		if val != nil {
			res = append(res, val)
		}
		return true
	})

	return res
}

func (o *closer) Len() int {
	i := o.idx()

	if i > math.MaxInt {
		return math.MaxInt
	}

	return int(i)
}

func (o *closer) Clean() {
	if o == nil || o.c.Load() {
		return
	}

	o.i.Store(0)
	o.x.Range(func(key uint64, _ io.Closer) bool {
		o.x.Delete(key)
		return true
	})
}

func (o *closer) Clone() Closer {
	if o == nil || o.c.Load() {
		return nil
	}

	n := &closer{
		c: new(atomic.Bool),
		f: o.f,
		i: new(atomic.Uint64),
		x: libatm.NewMapTyped[uint64, io.Closer](),
		d: o.d,
	}

	n.i.Store(o.idx())

	o.x.Range(func(key uint64, val io.Closer) bool {
		n.x.Store(key, val)
		return true
	})

	return n
}

func (o *closer) Close() error {
	if o == nil {
		return fmt.Errorf("mapCloser: not initialized")
	}

	if !o.c.CompareAndSwap(false, true) {
		return fmt.Errorf("mapCloser: already closed")
	}

	if o.f != nil {
		defer o.f()
	}

	var e = make([]string, 0)

	o.x.Range(func(_ uint64, val io.Closer) bool {
		if val == nil {
			return true
		}
		if err := val.Close(); err != nil {
			e = append(e, err.Error())
		}
		return true
	})

	if len(e) > 0 {
		return fmt.Errorf("%s", strings.Join(e, ", "))
	}

	return nil
}

func watch(ctx context.Context, c *closer) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.Close()
			return
		case <-t.C:
			if c.c.Load() {
				return
			}
		}
	}
}

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

package shm

import (
	"os"
	"sync"

	"github.com/xujiajun/mmap-go"

	liberr "github.com/ipcmesh/ipcmesh/errors"
	libsiz "github.com/ipcmesh/ipcmesh/size"
)

// Segment is a named, memory-mapped region backing one publisher data
// segment or one service dynamic-config region. Every offset handed out by
// an Allocator or recorded in a dynamic-config slot is relative to
// Segment.Bytes()'s base, so it is valid no matter where each mapping
// process' kernel happens to place the pages.
type Segment struct {
	mu   sync.Mutex
	path string
	file *os.File
	data mmap.MMap
	size libsiz.Size
}

// OpenOrCreate maps path, creating and zero-sizing it to size if it does not
// exist yet, or re-using (and, if necessary, growing to size) the existing
// file. The OS-level atomicity of the create step comes from O_EXCL; a
// concurrent creator loses the race and falls through to the open path.
func OpenOrCreate(path string, size libsiz.Size) (*Segment, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		f, err = os.OpenFile(path, os.O_RDWR, 0o644)
	}
	if err != nil {
		return nil, liberr.KindInsufficientPermissions.Error(err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, liberr.KindInternalFailure.Error(err)
	}

	if libsiz.Size(st.Size()) < size {
		if err = f.Truncate(int64(size)); err != nil {
			_ = f.Close()
			return nil, liberr.KindInternalFailure.Error(errTruncateFailed.Error(err))
		}
	} else {
		size = libsiz.Size(st.Size())
	}

	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		_ = f.Close()
		return nil, liberr.KindInternalFailure.Error(errMapFailed.Error(err))
	}

	return &Segment{path: path, file: f, data: data, size: size}, nil
}

// Open maps an existing segment file without creating it. Fails with
// KindDoesNotExist if path is absent.
func Open(path string) (*Segment, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, liberr.KindDoesNotExist.Error(err)
		}
		return nil, liberr.KindInsufficientPermissions.Error(err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, liberr.KindInternalFailure.Error(err)
	}

	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		_ = f.Close()
		return nil, liberr.KindInternalFailure.Error(errMapFailed.Error(err))
	}

	return &Segment{path: path, file: f, data: data, size: libsiz.Size(st.Size())}, nil
}

// Path returns the backing file path this segment was opened from.
func (s *Segment) Path() string { return s.path }

// Size returns the segment's total mapped capacity.
func (s *Segment) Size() libsiz.Size { return s.size }

// Bytes returns the mapped region. Callers must only use Allocator/Counter
// to read or write into it so that offsets remain valid across processes;
// slicing and mutating it directly bypasses the zero-copy safety contract.
func (s *Segment) Bytes() []byte { return s.data }

// Close unmaps the segment and closes its backing file descriptor without
// removing the file; other processes may still have it mapped.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.data != nil {
		err = s.data.Unmap()
		s.data = nil
	}
	if s.file != nil {
		if e := s.file.Close(); err == nil {
			err = e
		}
		s.file = nil
	}
	if err != nil {
		return liberr.KindInternalFailure.Error(err)
	}
	return nil
}

// Unlink closes the segment and removes its backing file. Used by decay when
// reclaiming a dead node's data segment, and by explicit service/port
// teardown once every attached process has detached.
func (s *Segment) Unlink() error {
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return liberr.KindInternalFailure.Error(errUnlinkFailed.Error(err))
	}
	return nil
}

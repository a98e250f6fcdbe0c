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

package size

import "math"

// Size counts bytes. Arithmetic saturates at zero and math.MaxUint64 instead
// of wrapping, since a negative or overflowed byte count has no meaning here.
type Size uint64

const (
	SizeNul  Size = 0
	SizeUnit Size = 1 << (10 * (iota - 1))
	SizeKilo
	SizeMega
	SizeGiga
	SizeTera
	SizePeta
	SizeExa
)

var defaultUnit rune = 0

// SetDefaultUnit changes the rune appended by Code when the caller passes 0.
func SetDefaultUnit(r rune) {
	defaultUnit = r
}

// Add returns s+o, saturating at math.MaxUint64 on overflow.
func (s Size) Add(o Size) Size {
	if uint64(o) > math.MaxUint64-uint64(s) {
		return Size(math.MaxUint64)
	}
	return s + o
}

// Sub returns s-o, saturating at 0 instead of wrapping when o > s.
func (s Size) Sub(o Size) Size {
	if o > s {
		return SizeNul
	}
	return s - o
}

// Mul returns s*n, saturating at math.MaxUint64 on overflow.
func (s Size) Mul(n uint64) Size {
	if n == 0 || uint64(s) == 0 {
		return SizeNul
	}
	if uint64(s) > math.MaxUint64/n {
		return Size(math.MaxUint64)
	}
	return Size(uint64(s) * n)
}

// Div returns s/n, or s unchanged when n is 0.
func (s Size) Div(n uint64) Size {
	if n == 0 {
		return s
	}
	return Size(uint64(s) / n)
}

func (s Size) Uint64() uint64   { return uint64(s) }
func (s Size) Int64() int64     { return int64(s) }
func (s Size) Float64() float64 { return float64(s) }

func (s Size) KiloBytes() uint64 { return uint64(s) / uint64(SizeKilo) }
func (s Size) MegaBytes() uint64 { return uint64(s) / uint64(SizeMega) }
func (s Size) GigaBytes() uint64 { return uint64(s) / uint64(SizeGiga) }
func (s Size) TeraBytes() uint64 { return uint64(s) / uint64(SizeTera) }

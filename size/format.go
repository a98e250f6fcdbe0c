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

import (
	"fmt"
	"strings"
)

const (
	FormatRound0 = "%.0f"
	FormatRound1 = "%.1f"
	FormatRound2 = "%.2f"
	FormatRound3 = "%.3f"
)

var scale = []struct {
	size   Size
	letter string
}{
	{SizeExa, "E"},
	{SizePeta, "P"},
	{SizeTera, "T"},
	{SizeGiga, "G"},
	{SizeMega, "M"},
	{SizeKilo, "K"},
}

// thresholdLetter returns the largest binary unit letter s fits in ("" for
// plain bytes), and the divisor for that unit.
func thresholdLetter(s Size) (string, Size) {
	for _, u := range scale {
		if s >= u.size {
			return u.letter, u.size
		}
	}
	return "", SizeUnit
}

// Unit returns the unit suffix for s ("B", "KB", "MB", ...), replacing the
// trailing "B" with r when r is non-zero.
func (s Size) Unit(r rune) string {
	letter, _ := thresholdLetter(s)
	suffix := "B"
	if r != 0 {
		suffix = string(r)
	}
	return letter + suffix
}

// Code is Unit using the package default unit rune set by SetDefaultUnit.
func (s Size) Code(r rune) string {
	if r == 0 {
		r = defaultUnit
	}
	return s.Unit(r)
}

// Format renders s using a fmt float verb/precision (e.g. FormatRound2),
// scaled to its largest matching binary unit, without the unit suffix.
func (s Size) Format(layout string) string {
	_, div := thresholdLetter(s)
	return strings.TrimRight(fmt.Sprintf(layout, s.Float64()/div.Float64()), "")
}

// String renders s scaled to its largest matching binary unit with a 2
// decimal default precision and unit suffix, e.g. "5.50KB".
func (s Size) String() string {
	return s.Format(FormatRound2) + s.Unit(0)
}

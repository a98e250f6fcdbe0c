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

package service

import "sort"

// Attributes is a user-defined multimap attached to a service: a key may
// occur multiple times with different values (spec §3). The zero value is
// ready to use.
type Attributes struct {
	m map[string][]string
}

// NewAttributes returns an empty, ready-to-use Attributes.
func NewAttributes() Attributes {
	return Attributes{m: make(map[string][]string)}
}

// Insert appends value under key, keeping any values already present.
func (a *Attributes) Insert(key, value string) {
	if a.m == nil {
		a.m = make(map[string][]string)
	}
	a.m[key] = append(a.m[key], value)
}

// Values returns every value recorded under key, in insertion order.
func (a Attributes) Values(key string) []string {
	return append([]string(nil), a.m[key]...)
}

// Contains reports whether (key, value) was recorded.
func (a Attributes) Contains(key, value string) bool {
	for _, v := range a.m[key] {
		if v == value {
			return true
		}
	}
	return false
}

// Keys returns every distinct key, sorted, for deterministic iteration (e.g.
// when serializing the static-config file).
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a.m))
	for k := range a.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// satisfies reports whether a contains every (key, value) pair required,
// i.e. the requirement set a caller's Open() may impose on the existing
// service's attributes.
func (a Attributes) satisfies(required map[string][]string) bool {
	for k, values := range required {
		for _, v := range values {
			if !a.Contains(k, v) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON/UnmarshalJSON let Attributes round-trip through the
// static-config file's JSON encoding via its unexported map.
type attributesJSON map[string][]string

func (a Attributes) toJSON() attributesJSON {
	if a.m == nil {
		return attributesJSON{}
	}
	return attributesJSON(a.m)
}

func attributesFromJSON(j attributesJSON) Attributes {
	if j == nil {
		return NewAttributes()
	}
	return Attributes{m: map[string][]string(j)}
}

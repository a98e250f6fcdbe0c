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

package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	libsiz "github.com/ipcmesh/ipcmesh/size"
)

// FuncReload is called, best-effort, whenever the watched config file changes
// and re-decodes cleanly. A failed decode keeps the last valid Global and does
// not invoke FuncReload.
type FuncReload func(g *Global)

// Loader wraps a viper.Viper instance bound to a single config file, exposing
// the decoded Global and an optional hot-reload hook. The zero value is not
// usable; build one with New.
type Loader struct {
	mu  sync.RWMutex
	vpr *viper.Viper
	cur *Global
	fct FuncReload
}

// New creates a Loader seeded with Default() and, if path is non-empty, reads
// and watches that file for changes via viper's fsnotify integration.
func New(path string) (*Loader, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	l := &Loader{vpr: v, cur: Default()}

	if path == "" {
		return l, nil
	}

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	if err := l.decode(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		l.mu.Lock()
		err := l.decodeLocked()
		fct := l.fct
		cur := l.cur
		l.mu.Unlock()

		if err == nil && fct != nil {
			fct(cur)
		}
	})
	v.WatchConfig()

	return l, nil
}

// OnReload registers the function invoked after every successful hot reload.
func (l *Loader) OnReload(fct FuncReload) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fct = fct
}

// Current returns the most recently decoded Global.
func (l *Loader) Current() *Global {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

func (l *Loader) decode() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decodeLocked()
}

func (l *Loader) decodeLocked() error {
	g := Default()

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           g,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			libsiz.ViperDecoderHook(),
		),
	})
	if err != nil {
		return err
	}

	if err = dec.Decode(l.vpr.AllSettings()); err != nil {
		return err
	}

	l.cur = g
	return nil
}

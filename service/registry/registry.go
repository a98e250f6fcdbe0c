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

package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/ipcmesh/ipcmesh/config"
	liberr "github.com/ipcmesh/ipcmesh/errors"
	"github.com/ipcmesh/ipcmesh/id"
	"github.com/ipcmesh/ipcmesh/logger"
	"github.com/ipcmesh/ipcmesh/service"
	"github.com/ipcmesh/ipcmesh/service/dynamic"
)

// Registry arbitrates service creation/opening for one root-path/prefix
// pair. A process typically holds one Registry per config.Global it uses.
type Registry struct {
	cfg *config.Global
	log logger.Logger

	mu    sync.Mutex
	cache map[id.ServiceID]*service.Service
}

// New returns a Registry rooted at cfg. log may be nil.
func New(cfg *config.Global, log logger.Logger) *Registry {
	return &Registry{
		cfg:   cfg,
		log:   log,
		cache: make(map[id.ServiceID]*service.Service),
	}
}

// Lookup returns a cached service handle by id, for callers (decay) that
// only know a service id from a node's service-tag file.
func (r *Registry) Lookup(sid id.ServiceID) (*service.Service, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.cache[sid]
	return svc, ok
}

func (r *Registry) servicesDir() string {
	return filepath.Join(r.cfg.RootPath, r.cfg.Prefix+"services")
}

func (r *Registry) staticConfigPath(sid id.ServiceID) string {
	return filepath.Join(r.servicesDir(), sid.String()+r.cfg.Suffixes.StaticConfigStorage)
}

func (r *Registry) lockPath(sid id.ServiceID) string {
	return r.staticConfigPath(sid) + ".lock"
}

func (r *Registry) logDebug(msg string, data interface{}) {
	if r.log != nil {
		r.log.Debug(msg, data)
	}
}

// Open requires an existing static-config file and checks req (plus
// requiredAttrs) against it.
func (r *Registry) Open(name string, pattern service.Pattern, req service.StaticConfig, requiredAttrs map[string][]string) (*service.Service, error) {
	sid := id.DeriveServiceID(r.cfg.Prefix, name, pattern.String())

	r.mu.Lock()
	if cached, ok := r.cache[sid]; ok {
		r.mu.Unlock()
		if err := cached.Static.Satisfies(req, requiredAttrs); err != nil {
			return nil, err
		}
		return cached, nil
	}
	r.mu.Unlock()

	raw, err := os.ReadFile(r.staticConfigPath(sid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, liberr.KindDoesNotExist.Error()
		}
		return nil, liberr.KindInsufficientPermissions.Error(errReadFailed.Error(err))
	}

	var existing service.StaticConfig
	if err = json.Unmarshal(raw, &existing); err != nil {
		return nil, liberr.KindInvalidConfig.Error(errDecodeFailed.Error(err))
	}

	if err = existing.Satisfies(req, requiredAttrs); err != nil {
		return nil, err
	}

	svc := &service.Service{
		ID:      sid,
		Name:    name,
		Static:  existing,
		Dynamic: dynamic.New(existing.PortCapacities()),
	}

	r.mu.Lock()
	r.cache[sid] = svc
	r.mu.Unlock()

	r.logDebug("opened service", map[string]string{"service": name, "id": sid.String()})
	return svc, nil
}

// Create atomically creates the static-config file with exclusive
// semantics, then initializes the in-process dynamic config.
func (r *Registry) Create(name string, pattern service.Pattern, sc service.StaticConfig) (*service.Service, error) {
	sid := id.DeriveServiceID(r.cfg.Prefix, name, pattern.String())
	sc.Pattern = pattern

	if err := os.MkdirAll(r.servicesDir(), 0o755); err != nil {
		return nil, liberr.KindInsufficientPermissions.Error(errMkdirFailed.Error(err))
	}

	fl := flock.New(r.lockPath(sid))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, liberr.KindInternalFailure.Error(errLockFailed.Error(err))
	}
	if !locked {
		return nil, liberr.KindAlreadyExists.Error()
	}
	defer fl.Unlock()

	path := r.staticConfigPath(sid)
	if _, statErr := os.Stat(path); statErr == nil {
		return nil, liberr.KindAlreadyExists.Error()
	}

	raw, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return nil, liberr.KindInternalFailure.Error(errWriteFailed.Error(err))
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, liberr.KindAlreadyExists.Error()
		}
		return nil, liberr.KindInsufficientPermissions.Error(errWriteFailed.Error(err))
	}
	_, werr := f.Write(raw)
	cerr := f.Close()
	if werr != nil {
		return nil, liberr.KindInternalFailure.Error(errWriteFailed.Error(werr))
	}
	if cerr != nil {
		return nil, liberr.KindInternalFailure.Error(errWriteFailed.Error(cerr))
	}

	svc := &service.Service{
		ID:      sid,
		Name:    name,
		Static:  sc,
		Dynamic: dynamic.New(sc.PortCapacities()),
	}

	r.mu.Lock()
	r.cache[sid] = svc
	r.mu.Unlock()

	r.logDebug("created service", map[string]string{"service": name, "id": sid.String()})
	return svc, nil
}

// OpenOrCreate tries Open; on DoesNotExist it tries Create; on a concurrent
// AlreadyExists it retries Open. The whole attempt is bounded by
// cfg.CreationTimeout, after which it fails with KindIsStalled.
func (r *Registry) OpenOrCreate(name string, pattern service.Pattern, sc service.StaticConfig, requiredAttrs map[string][]string) (*service.Service, error) {
	deadline := time.Now().Add(r.cfg.CreationTimeout)
	backoff := 10 * time.Millisecond

	for {
		svc, err := r.Open(name, pattern, sc, requiredAttrs)
		if err == nil {
			return svc, nil
		}
		if !liberr.IsCode(err, liberr.KindDoesNotExist) {
			return nil, err
		}

		svc, err = r.Create(name, pattern, sc)
		if err == nil {
			return svc, nil
		}
		if !liberr.IsCode(err, liberr.KindAlreadyExists) {
			return nil, err
		}

		if time.Now().After(deadline) {
			return nil, liberr.KindIsStalled.Error()
		}

		time.Sleep(backoff)
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

// OpenOrCreateContext is OpenOrCreate with an additional external
// cancellation signal; it races the retry loop against ctx.
func (r *Registry) OpenOrCreateContext(ctx context.Context, name string, pattern service.Pattern, sc service.StaticConfig, requiredAttrs map[string][]string) (*service.Service, error) {
	type result struct {
		svc *service.Service
		err error
	}
	done := make(chan result, 1)
	go func() {
		svc, err := r.OpenOrCreate(name, pattern, sc, requiredAttrs)
		done <- result{svc, err}
	}()

	select {
	case res := <-done:
		return res.svc, res.err
	case <-ctx.Done():
		return nil, liberr.KindInterrupted.Error(ctx.Err())
	}
}

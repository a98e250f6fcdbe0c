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

package decay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/ipcmesh/ipcmesh/config"
	liberr "github.com/ipcmesh/ipcmesh/errors"
	"github.com/ipcmesh/ipcmesh/id"
	"github.com/ipcmesh/ipcmesh/logger"
	"github.com/ipcmesh/ipcmesh/port"
	"github.com/ipcmesh/ipcmesh/service"
	"github.com/ipcmesh/ipcmesh/service/dynamic"
	"github.com/ipcmesh/ipcmesh/service/registry"
)

// Report summarizes one sweep.
type Report struct {
	DeadNodesFound int
	NodesReclaimed int
}

func nodesDir(cfg *config.Global) string {
	return filepath.Join(cfg.RootPath, cfg.Prefix+"nodes")
}

func monitoringPath(cfg *config.Global, nid id.NodeID) string {
	return filepath.Join(nodesDir(cfg), nid.String())
}

func infoPath(cfg *config.Global, nid id.NodeID) string {
	return filepath.Join(nodesDir(cfg), nid.String()+cfg.Suffixes.StaticConfig)
}

func tagPath(cfg *config.Global, nid id.NodeID) string {
	return filepath.Join(nodesDir(cfg), nid.String()+cfg.Suffixes.ServiceTag)
}

func reclaimLockPath(cfg *config.Global, nid id.NodeID) string {
	return monitoringPath(cfg, nid) + ".reclaim"
}

// Sweep lists cfg's node directory, reclaims every dead node's attachments
// from every service reg has open, and removes the dead node's files. It
// never returns an error for an individual node's reclaim failure; those
// are folded into the returned multierror (nil if every reclaim, including
// zero dead nodes, succeeded). log may be nil.
func Sweep(cfg *config.Global, reg *registry.Registry, log logger.Logger) (*Report, error) {
	dir := nodesDir(cfg)
	defer metricsReg.DecaySweepRun()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Report{}, nil
		}
		return nil, liberr.KindInsufficientPermissions.Error(errListFailed.Error(err))
	}

	var dead []id.NodeID
	for _, e := range entries {
		if e.IsDir() || strings.Contains(e.Name(), ".") {
			continue
		}
		nid, perr := id.ParseNodeID(e.Name())
		if perr != nil {
			continue
		}

		fl := flock.New(monitoringPath(cfg, nid))
		locked, lerr := fl.TryLock()
		if lerr != nil || !locked {
			continue // alive, or transient lock error: skip, next sweep will retry
		}
		_ = fl.Unlock()
		dead = append(dead, nid)
	}

	report := &Report{DeadNodesFound: len(dead)}
	if len(dead) == 0 {
		return report, nil
	}

	var (
		grp  errgroup.Group
		mErr error
		mu   = newMergeFunc(&mErr)
	)

	var reclaimedCount int32
	for _, nid := range dead {
		nid := nid
		grp.Go(func() error {
			reclaimed, rerr := reclaimNode(cfg, reg, nid, log)
			if rerr != nil {
				mu(rerr)
				return nil // best-effort: never fail the group
			}
			if reclaimed {
				atomic.AddInt32(&reclaimedCount, 1)
			}
			return nil
		})
	}
	_ = grp.Wait()
	report.NodesReclaimed = int(reclaimedCount)
	metricsReg.NodesReclaimed(report.NodesReclaimed)

	if mErr != nil {
		return report, mErr
	}
	return report, nil
}

// newMergeFunc returns a thread-safe accumulator closure that folds
// non-nil errors into *dst via multierror.Append.
func newMergeFunc(dst *error) func(error) {
	var mu sync.Mutex
	return func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		*dst = multierror.Append(*dst, err)
	}
}

// reclaimNode reclaims one dead node's attachments, guarded by a per-node
// destruction lock so concurrent sweepers all succeed (spec §4.8
// idempotency requirement): the loser's TryLock fails and it returns
// (false, nil) — a no-op, not an error.
func reclaimNode(cfg *config.Global, reg *registry.Registry, nid id.NodeID, log logger.Logger) (bool, error) {
	rl := flock.New(reclaimLockPath(cfg, nid))
	locked, err := rl.TryLock()
	if err != nil {
		return false, liberr.KindInternalFailure.Error(errReclaimLockFailed.Error(err))
	}
	if !locked {
		return false, nil
	}
	defer func() {
		_ = rl.Unlock()
		_ = os.Remove(reclaimLockPath(cfg, nid))
	}()

	raw, err := os.ReadFile(tagPath(cfg, nid))
	if err != nil {
		if os.IsNotExist(err) {
			raw = []byte("[]")
		} else {
			return false, liberr.KindInsufficientPermissions.Error(errTagReadFailed.Error(err))
		}
	}

	var serviceIDs []string
	_ = json.Unmarshal(raw, &serviceIDs)

	for _, sidStr := range serviceIDs {
		parsed, perr := id.ParseServiceID(sidStr)
		if perr != nil {
			continue
		}
		svc, ok := reg.Lookup(parsed)
		if !ok {
			continue // not known to this process's registry; nothing to reclaim here
		}
		reclaimFromService(svc, nid, log)
	}

	_ = os.Remove(monitoringPath(cfg, nid))
	_ = os.Remove(infoPath(cfg, nid))
	_ = os.Remove(tagPath(cfg, nid))

	if log != nil {
		log.Info("reclaimed dead node", map[string]string{"node": nid.String()})
	}
	return true, nil
}

// reclaimFromService delivers the configured dead-notifier event (if any)
// to svc's listeners, marks every outgoing (publisher/notifier) entry of
// nid expired so readers can finish draining, then detaches all of the
// dead node's entries (spec §4.8 step 3).
func reclaimFromService(svc *service.Service, nid id.NodeID, log logger.Logger) {
	cfg := svc.Dynamic
	entries := cfg.EntriesForNode(nid)

	if svc.Static.Pattern == service.Event {
		if ev := svc.Static.Event.NotifierDeadEvent; ev != nil {
			for _, e := range entries {
				if e.Kind == dynamic.Notifier {
					port.PublishEvent(svc, *ev)
					break
				}
			}
		}
	}

	for _, e := range entries {
		if e.Kind == dynamic.Publisher || e.Kind == dynamic.Notifier {
			cfg.MarkExpired(e.Kind, e.Port)
		}
	}
	for _, e := range entries {
		if derr := cfg.Detach(e.Kind, e.Port); derr != nil && log != nil {
			log.Warning("failed to detach reclaimed port", derr)
		}
	}
}

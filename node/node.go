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
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/ipcmesh/ipcmesh/config"
	"github.com/ipcmesh/ipcmesh/decay"
	liberr "github.com/ipcmesh/ipcmesh/errors"
	"github.com/ipcmesh/ipcmesh/id"
	"github.com/ipcmesh/ipcmesh/logger"
	"github.com/ipcmesh/ipcmesh/service"
	"github.com/ipcmesh/ipcmesh/service/registry"
)

// Info describes a node as seen from its static-info file, without
// requiring a live token (used by List).
type Info struct {
	ID        id.NodeID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Node anchors one process's participation. Its liveness token is an
// exclusively-locked monitoring file; the lock is released by the OS when
// the process exits, which is what lets a decay sweep elsewhere tell a live
// node from a dead one.
type Node struct {
	cfg *config.Global
	log logger.Logger
	reg *registry.Registry

	info  Info
	token *flock.Flock
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

// Create allocates a node id, acquires its liveness token, writes its
// static-info file, optionally runs a decay sweep, and returns a live
// handle backed by reg for subsequent ServiceBuilder use. log may be nil.
func Create(cfg *config.Global, reg *registry.Registry, name string, log logger.Logger) (*Node, error) {
	if err := os.MkdirAll(nodesDir(cfg), 0o755); err != nil {
		return nil, liberr.KindInsufficientPermissions.Error(errMkdirFailed.Error(err))
	}

	nid, err := id.NewNodeID()
	if err != nil {
		return nil, liberr.KindInsufficientResources.Error(err)
	}

	fl := flock.New(monitoringPath(cfg, nid))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, liberr.KindInternalFailure.Error(errLockFailed.Error(err))
	}
	if !locked {
		// Id collision: vanishingly rare (122-bit random uuid); caller can retry.
		return nil, liberr.KindAlreadyExists.Error()
	}

	info := Info{ID: nid, Name: name, CreatedAt: time.Now()}
	raw, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		_ = fl.Unlock()
		return nil, liberr.KindInternalFailure.Error(errWriteInfoFailed.Error(err))
	}
	if err = os.WriteFile(infoPath(cfg, nid), raw, 0o644); err != nil {
		_ = fl.Unlock()
		return nil, liberr.KindInsufficientPermissions.Error(errWriteInfoFailed.Error(err))
	}
	if err = os.WriteFile(tagPath(cfg, nid), []byte("[]"), 0o644); err != nil {
		_ = fl.Unlock()
		return nil, liberr.KindInsufficientPermissions.Error(errWriteInfoFailed.Error(err))
	}

	n := &Node{cfg: cfg, log: log, reg: reg, info: info, token: fl}

	if cfg.CleanupDeadNodesOnCreation {
		if _, sweepErr := decay.Sweep(cfg, reg, log); sweepErr != nil && log != nil {
			log.Warning("decay sweep on node creation failed", sweepErr)
		}
	}

	return n, nil
}

// ID returns the node's identifier.
func (n *Node) ID() id.NodeID { return n.info.ID }

// Name returns the node's human-readable name.
func (n *Node) Name() string { return n.info.Name }

// ServiceBuilder returns a typed builder for opening or creating the named
// service through this node.
func (n *Node) ServiceBuilder(name string) *Builder {
	return &Builder{node: n, name: name}
}

// joined records svc's id in this node's service-tag file when err is nil,
// then returns (svc, err) unchanged; it exists so every Builder resolver
// method can thread the bookkeeping through a one-line return.
func (n *Node) joined(svc *service.Service, err error) (*service.Service, error) {
	if err == nil && svc != nil {
		n.recordService(svc.ID)
	}
	return svc, err
}

// recordService appends sid to this node's service-tag file, best-effort:
// a failure here only means the next decay sweep won't reclaim this node's
// entry in that one service, so it is logged rather than returned.
func (n *Node) recordService(sid id.ServiceID) {
	path := tagPath(n.cfg, n.info.ID)

	var ids []string
	if raw, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(raw, &ids)
	}
	for _, s := range ids {
		if s == sid.String() {
			return
		}
	}
	ids = append(ids, sid.String())

	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err = os.WriteFile(path, raw, 0o644); err != nil && n.log != nil {
		n.log.Warning("failed to record service in node tag file", err)
	}
}

// Release drops the liveness token. If configured, it runs one more decay
// sweep before returning (spec §4.1). After Release, the Node must not be
// used again.
func (n *Node) Release() error {
	err := n.token.Unlock()

	if n.cfg.CleanupDeadNodesOnDestruction {
		if _, sweepErr := decay.Sweep(n.cfg, n.reg, n.log); sweepErr != nil && n.log != nil {
			n.log.Warning("decay sweep on node release failed", sweepErr)
		}
	}

	if err != nil {
		return liberr.KindInternalFailure.Error(errLockFailed.Error(err))
	}
	return nil
}

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
	"strings"

	"github.com/gofrs/flock"

	"github.com/ipcmesh/ipcmesh/config"
	liberr "github.com/ipcmesh/ipcmesh/errors"
	"github.com/ipcmesh/ipcmesh/id"
)

// List enumerates every node currently registered (alive) under cfg, by
// listing the node directory and filtering out any whose monitoring file
// can still be exclusively locked (i.e. dead — spec §4.1, §4.8).
func List(cfg *config.Global) ([]Info, error) {
	dir := nodesDir(cfg)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, liberr.KindInsufficientPermissions.Error(errListFailed.Error(err))
	}

	var out []Info
	for _, e := range entries {
		if e.IsDir() || strings.Contains(e.Name(), ".") {
			continue // auxiliary files carry a suffix; monitoring files are bare node ids
		}

		nid, perr := id.ParseNodeID(e.Name())
		if perr != nil {
			continue
		}

		fl := flock.New(monitoringPath(cfg, nid))
		locked, lerr := fl.TryLock()
		if lerr != nil {
			continue
		}
		if locked {
			// We just acquired the lock: the owning process is dead. Release
			// immediately; this call only reports live nodes.
			_ = fl.Unlock()
			continue
		}

		raw, rerr := os.ReadFile(infoPath(cfg, nid))
		if rerr != nil {
			continue
		}
		var info Info
		if jerr := json.Unmarshal(raw, &info); jerr != nil {
			continue
		}
		out = append(out, info)
	}

	return out, nil
}

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
	"time"

	libsiz "github.com/ipcmesh/ipcmesh/size"
)

// Global is the resolved, immutable view of node-level configuration. It is
// produced by Default or by a Loader (New, then Current) and handed down to
// node, service/registry and decay;
// none of those packages read a config file themselves.
type Global struct {
	// RootPath is the directory under which nodes/ and services/ live. Empty
	// means the platform default (os.TempDir()-based) chosen by the caller.
	RootPath string `json:"rootPath,omitempty" yaml:"rootPath,omitempty" toml:"rootPath,omitempty" mapstructure:"rootPath,omitempty"`

	// Prefix is prepended to every filename and shared-memory segment name
	// this module creates, so multiple independent deployments can share the
	// same RootPath without colliding.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" toml:"prefix,omitempty" mapstructure:"prefix,omitempty"`

	// Suffixes names every on-disk/shared-memory artifact by role.
	Suffixes SuffixSet `json:"suffixes,omitempty" yaml:"suffixes,omitempty" toml:"suffixes,omitempty" mapstructure:"suffixes,omitempty"`

	// CleanupDeadNodesOnCreation runs a decay sweep every time a Node is
	// created.
	CleanupDeadNodesOnCreation bool `json:"cleanupDeadNodesOnCreation,omitempty" yaml:"cleanupDeadNodesOnCreation,omitempty" toml:"cleanupDeadNodesOnCreation,omitempty" mapstructure:"cleanupDeadNodesOnCreation,omitempty"`

	// CleanupDeadNodesOnDestruction runs a decay sweep when a Node is released.
	CleanupDeadNodesOnDestruction bool `json:"cleanupDeadNodesOnDestruction,omitempty" yaml:"cleanupDeadNodesOnDestruction,omitempty" toml:"cleanupDeadNodesOnDestruction,omitempty" mapstructure:"cleanupDeadNodesOnDestruction,omitempty"`

	// CreationTimeout bounds the OpenOrCreate retry loop for service creation
	// before it fails with IsStalled.
	CreationTimeout time.Duration `json:"creationTimeout,omitempty" yaml:"creationTimeout,omitempty" toml:"creationTimeout,omitempty" mapstructure:"creationTimeout,omitempty"`

	// DefaultSegmentSize is carried with the configuration, but no package
	// reads it: publisher data segments are not sized from this value.
	DefaultSegmentSize libsiz.Size `json:"defaultSegmentSize,omitempty" yaml:"defaultSegmentSize,omitempty" toml:"defaultSegmentSize,omitempty" mapstructure:"defaultSegmentSize,omitempty"`
}

// SuffixSet names every filename suffix spec.md's on-disk layout requires, so
// node and service/registry never hardcode one.
type SuffixSet struct {
	StaticConfig          string `json:"staticConfig,omitempty" yaml:"staticConfig,omitempty" toml:"staticConfig,omitempty" mapstructure:"staticConfig,omitempty"`
	ServiceTag            string `json:"serviceTag,omitempty" yaml:"serviceTag,omitempty" toml:"serviceTag,omitempty" mapstructure:"serviceTag,omitempty"`
	StaticConfigStorage   string `json:"staticConfigStorage,omitempty" yaml:"staticConfigStorage,omitempty" toml:"staticConfigStorage,omitempty" mapstructure:"staticConfigStorage,omitempty"`
	DynamicConfigStorage  string `json:"dynamicConfigStorage,omitempty" yaml:"dynamicConfigStorage,omitempty" toml:"dynamicConfigStorage,omitempty" mapstructure:"dynamicConfigStorage,omitempty"`
	Connection            string `json:"connection,omitempty" yaml:"connection,omitempty" toml:"connection,omitempty" mapstructure:"connection,omitempty"`
	EventConnection       string `json:"eventConnection,omitempty" yaml:"eventConnection,omitempty" toml:"eventConnection,omitempty" mapstructure:"eventConnection,omitempty"`
	PublisherDataSegment  string `json:"publisherDataSegment,omitempty" yaml:"publisherDataSegment,omitempty" toml:"publisherDataSegment,omitempty" mapstructure:"publisherDataSegment,omitempty"`
}

// Default returns the configuration used when no file is supplied: platform
// temp dir, the "ipcmesh-" prefix, the spec's suggested suffixes, both decay
// triggers enabled, a five second creation timeout and a 4 MiB
// DefaultSegmentSize.
func Default() *Global {
	return &Global{
		RootPath:                      "",
		Prefix:                        "ipcmesh-",
		CleanupDeadNodesOnCreation:    true,
		CleanupDeadNodesOnDestruction: true,
		CreationTimeout:               5 * time.Second,
		DefaultSegmentSize:            4 * libsiz.SizeMega,
		Suffixes: SuffixSet{
			StaticConfig:         ".node-config",
			ServiceTag:           ".services",
			StaticConfigStorage:  ".static-config",
			DynamicConfigStorage: ".dynamic-config",
			Connection:           ".connection",
			EventConnection:      ".event-connection",
			PublisherDataSegment: ".data-segment",
		},
	}
}

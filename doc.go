// Package batch provides batched vertex-domain rendering for Go.
//
// # Overview
//
// batch packs many small, heterogeneous draw requests that share GPU
// buffer storage into a minimal number of actual draw submissions. It is
// the core a sprite or shape layer sits on: callers create vertex lists
// tagged with rendering-state groups, and a single Draw call replays an
// optimized, cached sequence of state, bind and draw operations.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/batch"
//	    "github.com/gogpu/batch/domain"
//	    "github.com/gogpu/gputypes"
//	)
//
//	sig := domain.Signature{
//	    {Name: "position", Format: gputypes.VertexFormatFloat32x2},
//	    {Name: "color", Format: gputypes.VertexFormatFloat32x4},
//	}
//
//	b := batch.New(batch.Config{})
//	group := batch.NewBlendGroup(gputypes.BlendStatePremultiplied(), 0, nil)
//	quad, err := b.Add(4, gputypes.PrimitiveTopologyTriangleList, sig, group, nil)
//	// write vertices through quad.Attribute("position"), then each frame:
//	b.Draw(backend)
//
// # Architecture
//
// The library is organized into:
//   - Public API: Batch, Group and the concrete state groups
//   - domain: shared attribute storage and vertex list handles
//   - render: the Backend boundary to the GPU-binding layer, plus the
//     per-device shader program registry
//   - internal/region: the span allocator behind every domain
//
// Vertex lists with the same attribute signature share one domain, and
// index-adjacent lists under the same group collapse into one draw call.
// Draw lists are rebuilt lazily: mutations only mark the batch dirty.
//
// # Threading
//
// All batch, domain and draw operations belong to the single thread that
// owns the GPU context. The package does no internal locking; embedders
// with worker threads synchronize externally. SetLogger is the exception
// and is safe from any goroutine.
package batch

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)

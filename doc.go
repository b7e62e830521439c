// Package plotcore provides the data and region-of-interest core for
// interactive 2D plots.
//
// # Overview
//
// plotcore holds the non-visual half of a plotting stack: point buffers,
// lazily recomputed derived views, and a hierarchy of user-manipulable
// regions (ranges, rectangles, lines) with parent/child constraints and a
// versioned multi-writer sync protocol. Rendering, axis scales, and UI glue
// are external collaborators that consume the read APIs once per frame.
//
// # Packages
//
//   - store: growable or ring-buffered point attribute storage
//   - view: dirty-flag-cached transformation views (filters, histograms)
//   - region: region nodes, constraint propagation, and the interaction
//     controller with its version-gated external update protocol
//   - persist: bbolt-backed snapshot storage for region records
//   - bridge: websocket bridge for the multi-writer record protocol
//   - render: GPU-facing vertex layout descriptors for store attributes
//
// The root package carries the small pieces everything shares: Bounds,
// Domain, the Signal observer primitive, and the package logger.
//
// # Quick Start
//
//	ps := store.New()
//	ps.Append(store.Chunk{X: []float32{1, 2, 3}, Y: []float32{4, 5, 6}})
//
//	v := view.FromStore(ps)
//	band := v.FilterByDomain(plotcore.Domain{X: &[2]float64{1.5, 3}})
//	frame := band.Data() // recomputed lazily, cached until the store changes
//
// # Concurrency
//
// The core is single-threaded and event-driven. One goroutine owns a
// controller and the stores/views attached to it; signals fire synchronously
// on that goroutine. The bridge is the only component that runs another
// goroutine, and it hands incoming records back to the owner via Drain.
package plotcore

// Package layout provides the geometry of a responsive dashboard grid.
//
// A [Layout] is an ordered list of [Item] cells placed on a column grid. Items
// are addressed by an [ID] and positioned in grid units (x, y, w, h). The same
// dashboard is laid out independently for each [Breakpoint]; the functions in
// this package derive one breakpoint's layout from another.
//
// # Bin Packing
//
// [FindSlot] is the primitive: given the current occupancy height of every
// column and a desired width, it returns the left-most offset whose span has
// the lowest top. Widgets therefore always land as high as possible and, among
// equal heights, as far left as possible, filling gaps left by shorter widgets.
//
// [PlaceAll] places a fresh list of items in input order. [FitToColumns]
// re-packs an existing layout in reading order (y, then x) for another column
// count, resolving each item's size with this priority:
//
//  1. An explicit per-breakpoint [Override] for the item's id.
//  2. The item's [Responsive] expand rules, when the target breakpoint is
//     narrower than the named threshold.
//  3. The item's own size, clamped to the column count and to MaxH.
//
// None of the functions mutate their input.
//
// # Example
//
//	order := layout.Order(layout.DefaultThresholds())
//	fitted := layout.FitToColumns(source, 6, layout.XS, layout.FitOptions{
//	    Overrides: overrides,
//	    Order:     order,
//	})
package layout

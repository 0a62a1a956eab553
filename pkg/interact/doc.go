// Package interact turns per-frame pointer input into graph edits.
//
// A [Machine] is stepped once per frame with the host's measured [Frame]
// (node rectangles and pin positions) and the current [Input]. It never
// mutates the graph itself: every outcome is returned as a
// [treeize.Effects] buffer for the host to apply once the frame's
// traversal is over.
//
// # Gestures
//
//   - Dragging from a pin starts a new wire. With Command held on a pin
//     that already has wires, the drag picks up the pin's remotes instead
//     and, unless Shift is also held, detaches them, so the gesture
//     re-routes existing wires.
//   - While a wire is being dragged, hovering another pin of the same kind
//     with Shift adds it to the bundle; with Command it removes it.
//   - Releasing over a pin of the opposite kind connects every pin of the
//     bundle to it. Releasing over empty canvas offers the viewer's
//     dropped-wire menu, or discards the bundle.
//   - A secondary press cancels a wire drag. Over a pin of the bundle it
//     only removes that pin. When idle, a secondary click on a pin drops
//     all of its wires.
//   - Shift-dragging over empty canvas draws a selection rectangle. On
//     release, nodes touching it (or fully inside it, with
//     [Options.RectContained]) replace the selection, are added to it with
//     Shift, or removed from it with Command.
//   - Dragging a node moves it, or the whole selection when it is
//     selected. Shift-click selects a node, Command-click deselects it, and
//     Command-click on empty canvas clears the selection.
//
// Removing a node from the graph removes it from the selection at once and
// from any in-progress wire bundle on the next step.
package interact

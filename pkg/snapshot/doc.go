// Package snapshot converts a graph to and from a self-contained document
// and persists documents.
//
// A [Document] records nodes by position in a slice rather than by
// [treeize.NodeID]. Handles carry arena generations that mean nothing
// outside the graph that issued them, so wires and the draw order refer to
// node indices instead. [Restore] rebuilds a graph whose draw order, open
// flags, positions and wire order match the captured one.
//
// Documents are stored by a [Store]:
//   - [FileStore]: one JSON file per document, for the command line
//   - [MongoStore]: a MongoDB collection, for the HTTP server
package snapshot

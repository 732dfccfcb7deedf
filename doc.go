// Package audiograph is a realtime audio graph engine in the shape of
// the Web Audio API: a control-thread Context and facade for building a
// node graph, and a render thread (driven by a Backend or offline.Render)
// that steps the graph one 128-frame quantum at a time.
//
// A Context is created with NewContext, nodes are created with its
// CreateXxx methods, wired together with Node.ConnectTo/ConnectParam, and
// automated with the AudioParam handles each node type exposes. The
// render side lives in internal/graph, internal/node, internal/param,
// internal/pool and internal/quantum; this package is the public control
// surface over them.
package audiograph

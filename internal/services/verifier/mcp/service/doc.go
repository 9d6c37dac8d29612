// Package service wires MCP transports to the verifier tool handlers.
//
// It is the transport adapter layer: the package knows how to run MCP over stdio
// or streamable HTTP and delegates business meaning to the handlers in the
// sibling domain package.
package service

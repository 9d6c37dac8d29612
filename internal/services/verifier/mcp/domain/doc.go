// Package domain defines the MCP tools that expose the verifier engine to
// agents and their handlers.
//
// Every tool is a pair: XTool returns the schema, XHandler binds it to an
// engine capability. Amounts travel as base-10 strings and timestamps as
// RFC3339. Engine errors are rendered through the i18n catalog so agents see
// a stable code plus a readable message.
package domain

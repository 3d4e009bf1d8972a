// Package handler implements the HTTP API of the mind map engine.
//
// # Handlers
//
// GraphHandler edits the map directly: nodes, links, clear, import and
// export.
//
// GestureHandler forwards pointer gestures and viewport changes from the
// renderer to the interaction controller, and takes the answers to rename
// and delete prompts.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201,
// 202, 204). Error responses return JSON with {error, kind, details}. Engine
// error kinds map to status codes: invalid references are 404, validation
// failures 400, storage failures 503.
//
// # Server-Sent Events
//
// The /events endpoint streams frames (positions and viewport transform),
// graph changes, prompts and surfaced errors to the renderer.
package handler

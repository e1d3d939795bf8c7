// Package server exposes the router over HTTP using the hosted agent
// runtime contract.
//
// Endpoints:
//
//	GET  /ping         health probe, {"status":"Healthy"}
//	POST /invocations  one Request in, text/event-stream out
//	GET  /ws           websocket: one Request in, fragment messages out
//	GET  /metrics      prometheus
//
// Every SSE event carries one fragment as a JSON-encoded string:
//
//	data: "{\"step\":\"deploy\",...}\n"
//
// Cancelling the client connection cancels the running request.
package server

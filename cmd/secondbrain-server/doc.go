// Command secondbrain-server exposes the engine's three operations —
// recall_search, chat, and ingest (port only) — over plain net/http and
// encoding/json. No websocket, no streaming: the engine answers in one
// request/response round trip.
package main

// Package server provides the read-only display board: HTTP routing, middleware and the
// handlers that render a session for a screen at the venue.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added wraps first), so the first
// one added sees the request first. [New] installs [Recover], [Logging] and, when the
// configuration sets a rate, [RateLimit] backed by golang.org/x/time/rate.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # Board
//
// [Board] reads a [Source] (a tasks.Session in practice) and never writes:
//
//	GET /                        HTML board (internal/web)
//	GET /health                  liveness
//	GET /api/session             session name, id and schema version
//	GET /api/queue               queued songs with singer names and wait estimates
//	GET /api/singers             singers in turn order with song counts
//	GET /api/singers/{id}/stats  one singer's statistics and history
//	GET /api/leaderboard         singers ranked by average rating
//	GET /api/stats               session statistics
//	GET /api/check?title=&author= whether a song was already performed
//
// # Event Stream
//
// [EventStream] serves GET /api/events as server-sent events fed by the session's
// events.Bus, so the HTML board reloads when something changes.
package server

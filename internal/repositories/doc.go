// Package repositories implements SQLite persistence for singers, songs, performances and the session row.
//
// Every mutating call runs inside one transaction, so a failed call leaves no partial writes.
// [Store.InTx] binds several repositories to a single transaction when a command spans
// more than one of them.
//
// Key Implementations:
//   - [SingerRepository] : singers in turn order, with case-insensitive unique names and rotation
//   - [SongRepository] : the queue and the archive, with manual reorder and terminal archiving
//   - [PerformanceRepository] : the immutable performance log
//   - [SessionRepository] : the session name and identifier
//
// Identifiers come from AUTOINCREMENT columns and are never reused, including after a clear.
// Timestamps are stored as unix milliseconds; the queue ordering key is songs.created_at.
package repositories

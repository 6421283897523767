// Package tasks runs a karaoke session: the command and query surface the CLI, the
// terminal UI and the display board share.
//
// # Session
//
// [Open] opens the SQLite store, applies migrations and returns a [Session]. A session
// is a single logical actor. Commands are serialized by a mutex and each one runs in
// exactly one transaction:
//
//  1. Singers: [Session.AddSinger], [Session.RenameSinger], [Session.DeleteSinger],
//     [Session.ClearSingers], [Session.RotateSingers]
//  2. Songs: [Session.AddSong] (append or fair play), [Session.UpdateSong],
//     [Session.ReorderSong], [Session.MoveSong], [Session.ArchiveSong],
//     [Session.DeleteSong], [Session.ClearSongs]
//  3. Performances: [Session.AddPerformance], [Session.AddPerformances],
//     [Session.ClearPerformances]
//  4. [Session.CompleteSong] archives a song, logs one performance per singer and
//     optionally rotates those singers, all or nothing
//  5. [Session.Reset] and [Session.LoadExampleData] replace everything
//
// After a command commits, the kinds it touched are published on the session's
// [events.Bus]. Queries read through the store without taking the command lock;
// aggregate queries read one snapshot transaction and hand it to package stats.
//
// # Progress Reporting
//
// [Session.LoadExampleData] and [Session.Export] emit [ProgressUpdate] values on an
// optional channel. Sends never block: a full channel drops the update.
//
// # Export
//
// [Session.Export] writes the session report in every requested format with a small
// worker pool and records the outcome of each file in a JSON manifest.
package tasks

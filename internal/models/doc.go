// Package models defines the entities of a karaoke session and the rules for their fields.
//
// There are three persistent entities:
//   - [Singer] : a participant with a turn priority ([Singer.SortOrder], lower goes sooner)
//   - [Song] : a queue entry for one or more singers, queued until it is archived
//   - [Performance] : an immutable log record of one singer finishing one song, with an optional rating
//
// A [Performance] carries snapshots of the song title and singer name taken when it was
// recorded, so history stays readable after singers are renamed or deleted.
//
// [Snapshot] is a consistent read of all three collections, consumed by the stats package.
// The [Repository] interface describes the CRUD contract implemented by the repositories package.
package models

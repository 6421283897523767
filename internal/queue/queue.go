// Package queue decides where a new song enters the queue.
//
// In [Append] mode a song always goes to the back. In [FairPlay] mode singers who have
// had fewer turns are placed ahead of singers who have had more, where a singer's
// turns are their logged performances plus the queued songs they already appear in.
//
// Everything here is a pure function of the current queue and performance log;
// the caller applies the result with a manual reorder.
package queue

import (
	"fmt"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

// Mode selects the insertion policy.
type Mode int

const (
	Append Mode = iota
	FairPlay
)

func (m Mode) String() string {
	switch m {
	case Append:
		return "append"
	case FairPlay:
		return "fair-play"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ModeFor maps the fair play toggle to a [Mode].
func ModeFor(fairPlay bool) Mode {
	if fairPlay {
		return FairPlay
	}
	return Append
}

// ParseMode reads a mode name as printed by [Mode.String].
func ParseMode(s string) (Mode, error) {
	switch s {
	case "append", "":
		return Append, nil
	case "fair-play", "fairplay", "fair":
		return FairPlay, nil
	default:
		return Append, fmt.Errorf("%w: unknown queue mode %q", shared.ErrInvalidArgument, s)
	}
}

// Turns counts, per singer, the logged performances plus the queued songs the singer appears in.
func Turns(queued []*models.Song, performances []*models.Performance) map[int64]int {
	turns := make(map[int64]int)
	for _, p := range performances {
		turns[p.SingerID]++
	}
	for _, song := range queued {
		for _, id := range models.UniqueIDs(song.SingerIDs) {
			turns[id]++
		}
	}
	return turns
}

// FairnessKey is the fewest turns taken by any of the singers. Unknown singers count as zero.
func FairnessKey(singerIDs []int64, turns map[int64]int) int {
	if len(singerIDs) == 0 {
		return 0
	}
	key := turns[singerIDs[0]]
	for _, id := range singerIDs[1:] {
		key = min(key, turns[id])
	}
	return key
}

// Position returns the index among queued songs at which a new song for singerIDs belongs.
//
// Append returns len(queued). FairPlay returns the index of the first queued song whose
// fairness key is strictly greater than the new song's, or len(queued) when there is none,
// so songs with equal keys keep their arrival order.
func Position(mode Mode, queued []*models.Song, performances []*models.Performance, singerIDs []int64) int {
	if mode != FairPlay {
		return len(queued)
	}

	turns := Turns(queued, performances)
	key := FairnessKey(singerIDs, turns)
	for i, song := range queued {
		if FairnessKey(song.SingerIDs, turns) > key {
			return i
		}
	}
	return len(queued)
}

// WaitPosition is the 1-based place of songID in the queue, or 0 when it is not queued.
func WaitPosition(queued []*models.Song, songID int64) int {
	for i, song := range queued {
		if song.ID == songID {
			return i + 1
		}
	}
	return 0
}

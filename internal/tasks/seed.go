package tasks

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/karaoke/internal/events"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/repositories"
)

// QueuedExamples is how many of the example songs stay in the queue; the rest are performed.
const QueuedExamples = 20

//go:embed examples.yaml
var examplesYAML []byte

type exampleSong struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Key    string `yaml:"key"`
	URL    string `yaml:"url"`
}

type exampleData struct {
	Singers []string      `yaml:"singers"`
	Songs   []exampleSong `yaml:"songs"`
}

// SeedResult counts what [Session.LoadExampleData] created.
type SeedResult struct {
	Session      *models.SessionInfo
	Singers      int
	Queued       int
	Archived     int
	Performances int
}

func loadExamples() (*exampleData, error) {
	var data exampleData
	if err := yaml.Unmarshal(examplesYAML, &data); err != nil {
		return nil, fmt.Errorf("failed to parse example data: %w", err)
	}
	return &data, nil
}

// LoadExampleData replaces the session contents with demonstration data: ten singers,
// twenty queued songs and ten performed songs rated between 2.5 and 5.
//
// Each song gets one or two random singers. A nil rng is seeded from the clock.
func (s *Session) LoadExampleData(ctx context.Context, rng *rand.Rand, progress chan<- ProgressUpdate) (*SeedResult, error) {
	data, err := loadExamples()
	if err != nil {
		return nil, err
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	result := &SeedResult{}
	err = s.command(ctx, "load example data", events.All, func(tx *repositories.Store) error {
		*result = SeedResult{}

		current, err := tx.Sessions().Get(ctx)
		if err != nil {
			return err
		}
		sendProgress(progress, resetSessionUpdate(current.Name))
		if result.Session, err = tx.Reset(ctx, current.Name); err != nil {
			return err
		}

		singers := make([]*models.Singer, 0, len(data.Singers))
		for i, name := range data.Singers {
			singer := models.NewSinger(name)
			if _, err := tx.Singers().Create(ctx, singer); err != nil {
				return err
			}
			singers = append(singers, singer)
			sendProgress(progress, seedSingerUpdate(i+1, len(data.Singers), name))
		}
		result.Singers = len(singers)

		for i, ex := range data.Songs {
			archived := i >= QueuedExamples
			if err := seedSong(ctx, tx, rng, ex, singers, archived, result); err != nil {
				return err
			}
			sendProgress(progress, seedSongUpdate(i+1, len(data.Songs), ex.Title, archived))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("example data loaded",
		"singers", result.Singers,
		"queued", result.Queued,
		"archived", result.Archived,
		"performances", result.Performances,
	)
	return result, nil
}

func seedSong(
	ctx context.Context,
	tx *repositories.Store,
	rng *rand.Rand,
	ex exampleSong,
	singers []*models.Singer,
	archived bool,
	result *SeedResult,
) error {
	key, err := models.ParseKey(ex.Key)
	if err != nil {
		return err
	}

	picked := slices.Clone(singers)
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	picked = picked[:min(rng.IntN(2)+1, len(picked))]

	ids := make([]int64, len(picked))
	for i, singer := range picked {
		ids[i] = singer.ID
	}

	song := models.NewSong(ex.Title, ex.Author, ids...)
	song.Key = key
	song.YouTubeURL = ex.URL
	if _, err := tx.Songs().Create(ctx, song); err != nil {
		return err
	}
	if !archived {
		result.Queued++
		return nil
	}

	if err := tx.Songs().Archive(ctx, song.ID); err != nil {
		return err
	}
	result.Archived++

	for _, singer := range picked {
		rating := exampleRating(rng)
		p := &models.Performance{
			SongID:     &song.ID,
			SingerID:   singer.ID,
			SongTitle:  song.Title,
			SingerName: singer.Name,
			Rating:     &rating,
		}
		if _, err := tx.Performances().Create(ctx, p); err != nil {
			return err
		}
		result.Performances++
	}
	return nil
}

// exampleRating draws a rating in [2.5, 5] on the half-step grid.
func exampleRating(rng *rand.Rand) float64 {
	return math.Round((rng.Float64()*2.5+2.5)*2) / 2
}

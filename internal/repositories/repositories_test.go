package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

var epoch = time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// setupTestStore returns a [Store] over a fresh database and a frozen clock.
func setupTestStore(t *testing.T) (*Store, *shared.StepClock) {
	t.Helper()
	clock := shared.NewStepClock(epoch, 0)
	return NewStore(setupTestDB(t), clock), clock
}

func addSinger(t *testing.T, s *Store, name string) *models.Singer {
	t.Helper()
	singer := models.NewSinger(name)
	if _, err := s.Singers().Create(context.Background(), singer); err != nil {
		t.Fatalf("failed to create singer %s: %v", name, err)
	}
	return singer
}

func addSong(t *testing.T, s *Store, title string, singerIDs ...int64) *models.Song {
	t.Helper()
	song := models.NewSong(title, "", singerIDs...)
	if _, err := s.Songs().Create(context.Background(), song); err != nil {
		t.Fatalf("failed to create song %s: %v", title, err)
	}
	return song
}

func queuedTitles(t *testing.T, s *Store) []string {
	t.Helper()
	songs, err := s.Songs().ListQueued(context.Background())
	if err != nil {
		t.Fatalf("failed to list queue: %v", err)
	}
	titles := make([]string, len(songs))
	for i, song := range songs {
		titles[i] = song.Title
	}
	return titles
}

func assertStrictlyIncreasing(t *testing.T, songs []*models.Song) {
	t.Helper()
	for i := 1; i < len(songs); i++ {
		if !songs[i].CreatedAt.After(songs[i-1].CreatedAt) {
			t.Errorf("queue keys not strictly increasing at %d: %v then %v", i, songs[i-1].CreatedAt, songs[i].CreatedAt)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSingerRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		store, _ := setupTestStore(t)

		amy := addSinger(t, store, "  Amy  ")
		bo := addSinger(t, store, "Bo")

		if amy.ID == 0 || bo.ID == 0 {
			t.Fatal("singer IDs should be set after creation")
		}
		if amy.Name != "Amy" {
			t.Errorf("expected trimmed name Amy, got %q", amy.Name)
		}
		if bo.SortOrder != amy.SortOrder+1 {
			t.Errorf("expected sort order %d, got %d", amy.SortOrder+1, bo.SortOrder)
		}
		if !amy.CreatedAt.Equal(epoch) {
			t.Errorf("expected created at %v, got %v", epoch, amy.CreatedAt)
		}
	})

	t.Run("Get", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")

		retrieved, err := store.Singers().Get(ctx, amy.ID)
		if err != nil {
			t.Fatalf("failed to get singer: %v", err)
		}
		if retrieved.Name != "Amy" || retrieved.SortOrder != amy.SortOrder {
			t.Errorf("unexpected singer: %+v", retrieved)
		}
	})

	t.Run("GetByName", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")

		retrieved, err := store.Singers().GetByName(ctx, " aMY ")
		if err != nil {
			t.Fatalf("failed to get singer by name: %v", err)
		}
		if retrieved.ID != amy.ID {
			t.Errorf("expected singer %d, got %d", amy.ID, retrieved.ID)
		}
	})

	t.Run("Update", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")

		amy.Name = "Amelia"
		if err := store.Singers().Update(ctx, amy); err != nil {
			t.Fatalf("failed to update singer: %v", err)
		}

		retrieved, _ := store.Singers().Get(ctx, amy.ID)
		if retrieved.Name != "Amelia" {
			t.Errorf("expected name Amelia, got %s", retrieved.Name)
		}
	})

	t.Run("List", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		bo := addSinger(t, store, "Bo")
		cy := addSinger(t, store, "Cy")

		if err := store.Singers().Rotate(ctx, []int64{amy.ID}); err != nil {
			t.Fatalf("failed to rotate: %v", err)
		}

		singers, err := store.Singers().List(ctx)
		if err != nil {
			t.Fatalf("failed to list singers: %v", err)
		}
		want := []int64{bo.ID, cy.ID, amy.ID}
		for i, s := range singers {
			if s.ID != want[i] {
				t.Errorf("position %d: expected singer %d, got %d", i, want[i], s.ID)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		song := addSong(t, store, "Song A", amy.ID)

		if err := store.Singers().Delete(ctx, amy.ID); err != nil {
			t.Fatalf("failed to delete singer: %v", err)
		}

		if _, err := store.Singers().Get(ctx, amy.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		kept, err := store.Songs().Get(ctx, song.ID)
		if err != nil {
			t.Fatalf("song should survive singer deletion: %v", err)
		}
		if len(kept.SingerIDs) != 1 || kept.SingerIDs[0] != amy.ID {
			t.Errorf("song singers should be untouched, got %v", kept.SingerIDs)
		}
	})

	t.Run("Clear Does Not Reuse IDs", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")

		if err := store.Singers().Clear(ctx); err != nil {
			t.Fatalf("failed to clear singers: %v", err)
		}

		again := addSinger(t, store, "Amy")
		if again.ID <= amy.ID {
			t.Errorf("expected a fresh id greater than %d, got %d", amy.ID, again.ID)
		}
	})
}

func TestSingerRotation(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	a := addSinger(t, store, "A")
	b := addSinger(t, store, "B")
	c := addSinger(t, store, "C")
	d := addSinger(t, store, "D")

	t.Run("moves listed singers to the back in the given order", func(t *testing.T) {
		if err := store.Singers().Rotate(ctx, []int64{c.ID, a.ID, c.ID, 999}); err != nil {
			t.Fatalf("failed to rotate: %v", err)
		}

		singers, _ := store.Singers().List(ctx)
		want := []int64{b.ID, d.ID, c.ID, a.ID}
		for i, s := range singers {
			if s.ID != want[i] {
				t.Errorf("position %d: expected singer %d, got %d", i, want[i], s.ID)
			}
		}
	})

	t.Run("sort orders stay distinct", func(t *testing.T) {
		if err := store.Singers().Rotate(ctx, []int64{b.ID}); err != nil {
			t.Fatalf("failed to rotate: %v", err)
		}

		singers, _ := store.Singers().List(ctx)
		seen := map[int64]bool{}
		for _, s := range singers {
			if seen[s.SortOrder] {
				t.Errorf("duplicate sort order %d", s.SortOrder)
			}
			seen[s.SortOrder] = true
		}
	})

	t.Run("empty list is a no-op", func(t *testing.T) {
		if err := store.Singers().Rotate(ctx, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestSongRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		bo := addSinger(t, store, "Bo")

		key := 2
		song := models.NewSong(" Song A ", " Queen ", amy.ID, bo.ID, amy.ID)
		song.Key = &key
		song.YouTubeURL = "https://www.youtube.com/watch?v=abc"

		id, err := store.Songs().Create(ctx, song)
		if err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		retrieved, err := store.Songs().Get(ctx, id)
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if retrieved.Title != "Song A" || retrieved.Author != "Queen" {
			t.Errorf("expected trimmed fields, got %q / %q", retrieved.Title, retrieved.Author)
		}
		if len(retrieved.SingerIDs) != 2 || retrieved.SingerIDs[0] != amy.ID || retrieved.SingerIDs[1] != bo.ID {
			t.Errorf("expected deduplicated singers [%d %d], got %v", amy.ID, bo.ID, retrieved.SingerIDs)
		}
		if retrieved.Key == nil || *retrieved.Key != 2 {
			t.Errorf("expected key +2, got %v", retrieved.Key)
		}
		if retrieved.Status != models.StatusQueued || retrieved.CompletedAt != nil {
			t.Errorf("new songs must be queued, got %s", retrieved.Status)
		}
	})

	t.Run("Append With Frozen Clock", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")

		for _, title := range []string{"one", "two", "three"} {
			addSong(t, store, title, amy.ID)
		}

		if got := queuedTitles(t, store); !equalStrings(got, []string{"one", "two", "three"}) {
			t.Errorf("expected insertion order, got %v", got)
		}

		songs, _ := store.Songs().ListQueued(ctx)
		assertStrictlyIncreasing(t, songs)
	})

	t.Run("Update", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		bo := addSinger(t, store, "Bo")
		song := addSong(t, store, "Song A", amy.ID)

		title := "Song B"
		models.SongPatch{Title: &title, SingerIDs: []int64{bo.ID}}.Apply(song)
		if err := store.Songs().Update(ctx, song); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}

		retrieved, _ := store.Songs().Get(ctx, song.ID)
		if retrieved.Title != "Song B" {
			t.Errorf("expected title Song B, got %s", retrieved.Title)
		}
		if len(retrieved.SingerIDs) != 1 || retrieved.SingerIDs[0] != bo.ID {
			t.Errorf("expected singers [%d], got %v", bo.ID, retrieved.SingerIDs)
		}
		if !retrieved.CreatedAt.Equal(song.CreatedAt) {
			t.Error("update must not move the song in the queue")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		song := addSong(t, store, "Song A", amy.ID)

		if err := store.Songs().Delete(ctx, song.ID); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}
		if _, err := store.Songs().Get(ctx, song.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		var links int
		store.DB().QueryRow(`SELECT COUNT(*) FROM song_singers`).Scan(&links)
		if links != 0 {
			t.Errorf("expected junction rows to be removed, got %d", links)
		}
	})

	t.Run("Archive", func(t *testing.T) {
		store, clock := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		song := addSong(t, store, "Song A", amy.ID)

		done := epoch.Add(5 * time.Minute)
		clock.Set(done)
		if err := store.Songs().Archive(ctx, song.ID); err != nil {
			t.Fatalf("failed to archive song: %v", err)
		}

		archived, _ := store.Songs().Get(ctx, song.ID)
		if archived.Status != models.StatusArchived {
			t.Errorf("expected archived status, got %s", archived.Status)
		}
		if archived.CompletedAt == nil || !archived.CompletedAt.Equal(done) {
			t.Errorf("expected completed at %v, got %v", done, archived.CompletedAt)
		}

		queued, _ := store.Songs().ListQueued(ctx)
		if len(queued) != 0 {
			t.Errorf("archived song must leave the queue, got %d queued", len(queued))
		}
	})

	t.Run("ListArchived", func(t *testing.T) {
		store, clock := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		first := addSong(t, store, "first", amy.ID)
		second := addSong(t, store, "second", amy.ID)

		clock.Set(epoch.Add(time.Minute))
		store.Songs().Archive(ctx, second.ID)
		clock.Set(epoch.Add(2 * time.Minute))
		store.Songs().Archive(ctx, first.ID)

		archived, err := store.Songs().ListArchived(ctx)
		if err != nil {
			t.Fatalf("failed to list archive: %v", err)
		}
		if len(archived) != 2 || archived[0].ID != second.ID || archived[1].ID != first.ID {
			t.Errorf("expected completion order [second first], got %v", archived)
		}
	})
}

func TestSongReorder(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Store, []*models.Song) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		return store, []*models.Song{
			addSong(t, store, "a", amy.ID),
			addSong(t, store, "b", amy.ID),
			addSong(t, store, "c", amy.ID),
		}
	}

	tc := []struct {
		name  string
		from  int
		index int
		want  []string
	}{
		{name: "last to first", from: 2, index: 0, want: []string{"c", "a", "b"}},
		{name: "first to last", from: 0, index: 2, want: []string{"b", "c", "a"}},
		{name: "same position", from: 1, index: 1, want: []string{"a", "b", "c"}},
		{name: "clamped high", from: 0, index: 99, want: []string{"b", "c", "a"}},
		{name: "clamped low", from: 2, index: -4, want: []string{"c", "a", "b"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			store, songs := setup(t)

			if err := store.Songs().Reorder(ctx, songs[tt.from].ID, tt.index); err != nil {
				t.Fatalf("failed to reorder: %v", err)
			}
			if got := queuedTitles(t, store); !equalStrings(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}

			queued, _ := store.Songs().ListQueued(ctx)
			assertStrictlyIncreasing(t, queued)
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		store, songs := setup(t)

		for range 3 {
			if err := store.Songs().Reorder(ctx, songs[2].ID, 0); err != nil {
				t.Fatalf("failed to reorder: %v", err)
			}
		}
		if got := queuedTitles(t, store); !equalStrings(got, []string{"c", "a", "b"}) {
			t.Errorf("expected [c a b], got %v", got)
		}
	})

	t.Run("append after reorder stays last", func(t *testing.T) {
		store, songs := setup(t)
		store.Songs().Reorder(ctx, songs[2].ID, 0)

		addSong(t, store, "d", songs[0].SingerIDs[0])
		if got := queuedTitles(t, store); !equalStrings(got, []string{"c", "a", "b", "d"}) {
			t.Errorf("expected [c a b d], got %v", got)
		}
	})
}

func TestPerformanceRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And List", func(t *testing.T) {
		store, _ := setupTestStore(t)

		rating := 4.5
		songID := int64(7)
		p := &models.Performance{SongID: &songID, SingerID: 1, SongTitle: "Song A", SingerName: "Amy", Rating: &rating}
		if _, err := store.Performances().Create(ctx, p); err != nil {
			t.Fatalf("failed to create performance: %v", err)
		}
		standalone := &models.Performance{SingerID: 2, SongTitle: "Song B", SingerName: "Bo"}
		if _, err := store.Performances().Create(ctx, standalone); err != nil {
			t.Fatalf("failed to create performance: %v", err)
		}

		all, err := store.Performances().List(ctx)
		if err != nil {
			t.Fatalf("failed to list performances: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 performances, got %d", len(all))
		}
		if all[0].Rating == nil || *all[0].Rating != 4.5 || all[0].SongID == nil || *all[0].SongID != 7 {
			t.Errorf("unexpected first performance: %+v", all[0])
		}
		if all[1].Rating != nil || all[1].SongID != nil {
			t.Errorf("expected unrated standalone performance, got %+v", all[1])
		}
		if !all[0].PerformedAt.Equal(epoch) {
			t.Errorf("expected performed at %v, got %v", epoch, all[0].PerformedAt)
		}

		bySinger, _ := store.Performances().ListBySinger(ctx, 2)
		if len(bySinger) != 1 || bySinger[0].SingerName != "Bo" {
			t.Errorf("unexpected performances for singer 2: %v", bySinger)
		}

		bySong, _ := store.Performances().ListBySong(ctx, 7)
		if len(bySong) != 1 {
			t.Errorf("expected 1 performance for song 7, got %d", len(bySong))
		}
	})

	t.Run("Survives Singer Deletion", func(t *testing.T) {
		store, _ := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		store.Performances().Create(ctx, &models.Performance{SingerID: amy.ID, SongTitle: "Song A", SingerName: amy.Name})

		store.Singers().Delete(ctx, amy.ID)

		all, _ := store.Performances().List(ctx)
		if len(all) != 1 || all[0].SingerName != "Amy" {
			t.Errorf("expected the snapshot name to survive, got %v", all)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store, _ := setupTestStore(t)
		store.Performances().Create(ctx, &models.Performance{SingerID: 1, SongTitle: "x", SingerName: "y"})

		if err := store.Performances().Clear(ctx); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		all, _ := store.Performances().List(ctx)
		if len(all) != 0 {
			t.Errorf("expected empty log, got %d", len(all))
		}
	})
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("InTx Commits", func(t *testing.T) {
		store, _ := setupTestStore(t)

		err := store.InTx(ctx, func(tx *Store) error {
			amy := models.NewSinger("Amy")
			if _, err := tx.Singers().Create(ctx, amy); err != nil {
				return err
			}
			_, err := tx.Songs().Create(ctx, models.NewSong("Song A", "", amy.ID))
			return err
		})
		if err != nil {
			t.Fatalf("transaction failed: %v", err)
		}

		singers, _ := store.Singers().List(ctx)
		songs, _ := store.Songs().List(ctx)
		if len(singers) != 1 || len(songs) != 1 {
			t.Errorf("expected 1 singer and 1 song, got %d and %d", len(singers), len(songs))
		}
	})

	t.Run("InTx Rolls Back", func(t *testing.T) {
		store, _ := setupTestStore(t)
		boom := errors.New("boom")

		err := store.InTx(ctx, func(tx *Store) error {
			if _, err := tx.Singers().Create(ctx, models.NewSinger("Amy")); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		singers, _ := store.Singers().List(ctx)
		if len(singers) != 0 {
			t.Errorf("expected rollback to discard the singer, got %d", len(singers))
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		store, clock := setupTestStore(t)
		amy := addSinger(t, store, "Amy")
		done := addSong(t, store, "done", amy.ID)
		addSong(t, store, "next", amy.ID)
		clock.Set(epoch.Add(time.Minute))
		store.Songs().Archive(ctx, done.ID)
		store.Performances().Create(ctx, &models.Performance{SingerID: amy.ID, SongTitle: "done", SingerName: "Amy"})

		snap, err := store.Snapshot(ctx)
		if err != nil {
			t.Fatalf("failed to take snapshot: %v", err)
		}
		if len(snap.Singers) != 1 || len(snap.Songs) != 2 || len(snap.Performances) != 1 {
			t.Fatalf("unexpected snapshot sizes: %d singers, %d songs, %d performances",
				len(snap.Singers), len(snap.Songs), len(snap.Performances))
		}
		if q := snap.Queued(); len(q) != 1 || q[0].Title != "next" {
			t.Errorf("expected queue [next], got %v", q)
		}
		if a := snap.Archived(); len(a) != 1 || a[0].Title != "done" {
			t.Errorf("expected archive [done], got %v", a)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		store, _ := setupTestStore(t)
		first, err := store.Sessions().Ensure(ctx, "Friday")
		if err != nil {
			t.Fatalf("failed to ensure session: %v", err)
		}
		amy := addSinger(t, store, "Amy")
		addSong(t, store, "Song A", amy.ID)
		store.Performances().Create(ctx, &models.Performance{SingerID: amy.ID, SongTitle: "Song A", SingerName: "Amy"})

		info, err := store.Reset(ctx, "Saturday")
		if err != nil {
			t.Fatalf("failed to reset: %v", err)
		}
		if info.UUID == first.UUID {
			t.Error("reset should issue a new session identifier")
		}
		if info.Name != "Saturday" {
			t.Errorf("expected name Saturday, got %s", info.Name)
		}

		snap, _ := store.Snapshot(ctx)
		if len(snap.Singers)+len(snap.Songs)+len(snap.Performances) != 0 {
			t.Error("reset should remove every entity")
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	t.Run("Get Before Ensure", func(t *testing.T) {
		if _, err := store.Sessions().Get(ctx); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Ensure Is Stable", func(t *testing.T) {
		first, err := store.Sessions().Ensure(ctx, "")
		if err != nil {
			t.Fatalf("failed to ensure session: %v", err)
		}
		if first.Name != DefaultSessionName {
			t.Errorf("expected default name, got %s", first.Name)
		}

		second, _ := store.Sessions().Ensure(ctx, "Other")
		if second.UUID != first.UUID || second.Name != first.Name {
			t.Error("ensure must not replace an existing session")
		}
	})

	t.Run("Rename", func(t *testing.T) {
		before, _ := store.Sessions().Get(ctx)
		if err := store.Sessions().Rename(ctx, "Encore"); err != nil {
			t.Fatalf("failed to rename: %v", err)
		}
		after, _ := store.Sessions().Get(ctx)
		if after.Name != "Encore" || after.UUID != before.UUID {
			t.Errorf("unexpected session after rename: %+v", after)
		}
	})
}

// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/karaoke/internal/models"
)

// Epoch is the fixed start time used by test clocks and fixtures.
var Epoch = time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// SampleSnapshot returns a small session: three current singers, a deleted singer who only
// appears in the log, two queued songs, two archived songs and four performances.
func SampleSnapshot() *models.Snapshot {
	completed := Epoch.Add(30 * time.Minute)
	return &models.Snapshot{
		Singers: []*models.Singer{
			{ID: 1, Name: "Amy", SortOrder: 3, CreatedAt: Epoch},
			{ID: 2, Name: "Bo", SortOrder: 1, CreatedAt: Epoch},
			{ID: 3, Name: "Cy", SortOrder: 2, CreatedAt: Epoch},
		},
		Songs: []*models.Song{
			{ID: 3, Title: "Africa", Author: "Toto", SingerIDs: []int64{2}, Key: Ptr(2), YouTubeURL: "https://www.youtube.com/watch?v=FTQbiNvZqaY", Status: models.StatusQueued, CreatedAt: Epoch.Add(time.Minute)},
			{ID: 4, Title: "Shallow", Author: "Lady Gaga & Bradley Cooper", SingerIDs: []int64{3, 1}, Status: models.StatusQueued, CreatedAt: Epoch.Add(2 * time.Minute)},
			{ID: 1, Title: "Imagine", Author: "John Lennon", SingerIDs: []int64{1}, Status: models.StatusArchived, CreatedAt: Epoch, CompletedAt: &completed},
			{ID: 2, Title: "My Way", Author: "Frank Sinatra", SingerIDs: []int64{9, 2}, Status: models.StatusArchived, CreatedAt: Epoch, CompletedAt: &completed},
		},
		Performances: []*models.Performance{
			{ID: 1, SongID: Ptr(int64(1)), SingerID: 1, SongTitle: "Imagine", SingerName: "Amy", Rating: Ptr(4.5), PerformedAt: completed},
			{ID: 2, SongID: Ptr(int64(2)), SingerID: 9, SongTitle: "My Way", SingerName: "Dee", Rating: Ptr(4.0), PerformedAt: completed},
			{ID: 3, SongID: Ptr(int64(2)), SingerID: 2, SongTitle: "My Way", SingerName: "Bo", Rating: Ptr(4.0), PerformedAt: completed},
			{ID: 4, SingerID: 2, SongTitle: "Warm Up", SingerName: "Bo", PerformedAt: Epoch},
		},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

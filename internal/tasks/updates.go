package tasks

import (
	"fmt"

	"github.com/desertthunder/karaoke/internal/formatter"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResetSession Phase = iota
	SeedSingers
	SeedSongs
	SeedPerformances
	ExportReport
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case ResetSession:
		return "reset_session"
	case SeedSingers:
		return "seed_singers"
	case SeedSongs:
		return "seed_songs"
	case SeedPerformances:
		return "seed_performances"
	case ExportReport:
		return "export_report"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resetSessionUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResetSession,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resetting session %q...", name),
	}
}

func seedSingerUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SeedSingers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Singer: %s", step, total, name),
	}
}

func seedSongUpdate(step, total int, title string, archived bool) ProgressUpdate {
	phase := SeedSongs
	if archived {
		phase = SeedPerformances
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Song: %s", step, total, title),
	}
}

func exportingUpdate(step, total int, f formatter.Format) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting %s...", step, total, f),
	}
}

func exportCompletedUpdate(step, total int, f formatter.Format, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s: %s", step, total, f, path),
		Data:    path,
	}
}

func exportFailedUpdate(step, total int, f formatter.Format, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, f, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
		Data:    path,
	}
}

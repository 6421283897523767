package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/shared"
)

// ManifestFile is the name of the summary written next to the exported files.
const ManifestFile = "export_manifest.json"

// ExportOpts contains configuration for a session export.
type ExportOpts struct {
	Formats    []formatter.Format // Defaults to every format
	OutputDir  string             // Defaults to karaoke_export_{epoch}
	NumWorkers int                // Concurrent writers (default: 3, max: len(Formats))
}

// ExportFileResult is the outcome of writing one format.
type ExportFileResult struct {
	Format  formatter.Format `json:"format"`
	Path    string           `json:"path,omitempty"`
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
}

// ExportResult summarizes an export and is written as the manifest.
type ExportResult struct {
	SessionName     string             `json:"session_name"`
	SessionUUID     string             `json:"session_uuid"`
	OutputDirectory string             `json:"output_directory"`
	Successful      int                `json:"successful"`
	Failed          int                `json:"failed"`
	Results         []ExportFileResult `json:"results"`
	ManifestPath    string             `json:"-"`
}

// Export writes the session report in several formats concurrently and records the
// outcome of each in a manifest. A failed format does not stop the others.
func (s *Session) Export(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	report, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}

	if len(opts.Formats) == 0 {
		opts.Formats = formatter.Formats
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("karaoke_export_%d", report.GeneratedAt.Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	opts.NumWorkers = min(opts.NumWorkers, len(opts.Formats))

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		SessionName:     report.Session.Name,
		SessionUUID:     report.Session.UUID,
		OutputDirectory: opts.OutputDir,
		Results:         make([]ExportFileResult, 0, len(opts.Formats)),
	}

	jobs := make(chan formatter.Format, len(opts.Formats))
	results := make(chan ExportFileResult, len(opts.Formats))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, report, opts.OutputDir, jobs, results)
	}

	for i, f := range opts.Formats {
		sendProgress(prog, exportingUpdate(i+1, len(opts.Formats), f))
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.Successful++
			sendProgress(prog, exportCompletedUpdate(completed, len(opts.Formats), res.Format, res.Path))
		} else {
			result.Failed++
			sendProgress(prog, exportFailedUpdate(completed, len(opts.Formats), res.Format, fmt.Errorf("%s", res.Error)))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	s.logger.Info("session exported", "dir", opts.OutputDir, "ok", result.Successful, "failed", result.Failed)
	return result, nil
}

// exportWorker writes one file per format received on jobs.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	report *formatter.Report,
	dir string,
	jobs <-chan formatter.Format,
	results chan<- ExportFileResult,
) {
	defer wg.Done()

	for f := range jobs {
		if ctx.Err() != nil {
			results <- ExportFileResult{Format: f, Error: ctx.Err().Error()}
			continue
		}

		res := ExportFileResult{Format: f}
		path, err := formatter.WriteExport(report, f, filepath.Join(dir, formatter.Filename(f)))
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Path = path
			res.Success = true
		}
		results <- res
	}
}

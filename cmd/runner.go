package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/tasks"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5FA2"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	session    *tasks.Session
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Session    *tasks.Session // Opened from Config on first use when nil
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		session:    opts.Session,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, singerCommand, songCommand, perfCommand, boardCommand, sessionCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and any session it opens afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Session opens the configured session on first use. The --db flag overrides the configured database path.
func (r *Runner) Session(ctx context.Context, cmd *cli.Command) (*tasks.Session, error) {
	if r.session != nil {
		return r.session, nil
	}

	cfg := *r.config
	if path := cmd.String("db"); path != "" {
		cfg.Database.Path = path
	}

	s, err := tasks.Open(ctx, tasks.Options{Config: &cfg, Logger: r.logger})
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	r.session = s
	return s, nil
}

// Close releases the session if one was opened.
func (r *Runner) Close() error {
	if r.session == nil {
		return nil
	}
	err := r.session.Close()
	r.session = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n", headingStyle.Render(title))
	r.writePlain("%s\n", mutedStyle.Render(strings.Repeat("═", max(len([]rune(title)), 39))))
}

// parseID reads a numeric identifier argument.
func parseID(s, what string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: %s id", shared.ErrMissingArgument, what)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s id %q", shared.ErrInvalidArgument, what, s)
	}
	return id, nil
}

// resolveSinger accepts either a singer id or a name, ignoring case.
func resolveSinger(ctx context.Context, s *tasks.Session, ref string) (*models.Singer, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: singer", shared.ErrMissingArgument)
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		singer, err := s.Singer(ctx, id)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return singer, err
		}
	}
	return s.SingerByName(ctx, ref)
}

func resolveSingers(ctx context.Context, s *tasks.Session, refs []string) ([]int64, error) {
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		singer, err := resolveSinger(ctx, s, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, singer.ID)
	}
	return ids, nil
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true}
}

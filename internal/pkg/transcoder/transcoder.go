package transcoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// State tracks the engine lifecycle. Ready is required before any conversion.
type State string

const (
	StateUnloaded   State = "unloaded"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateConverting State = "converting"
)

var (
	// ErrCancelled marks a user-initiated stop. It is a normal terminal
	// condition, never surfaced as a user-facing error.
	ErrCancelled = errors.New("conversion cancelled")
	ErrNotReady  = errors.New("transcoder engine is not ready")
	ErrNoInput   = errors.New("no input video provided")
)

// ProgressFunc receives a monotonically increasing percentage 0-100.
type ProgressFunc func(percent int)

// AudioArtifact is the downloadable result of a conversion.
type AudioArtifact struct {
	Path     string `json:"-"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Runner executes an engine command, streaming its machine-readable progress
// output into stdout. Injected so tests never need a real ffmpeg binary.
type Runner func(ctx context.Context, stdout io.Writer, name string, args ...string) error

// Prober reports the duration of a media file, used to scale progress.
type Prober func(ctx context.Context, input string) (time.Duration, error)

// Engine wraps the ffmpeg binary as an explicitly owned resource handle with
// a Load/Convert lifecycle. The engine binary is treated as an opaque black
// box: input bytes go into its workspace, a fixed extract command runs, and
// the output bytes come back.
type Engine struct {
	mu       sync.Mutex
	state    State
	binary   string
	workDir  string
	runner   Runner
	prober   Prober
	lookPath func(string) (string, error)
}

// NewEngine creates an unloaded engine that stages files under workDir.
func NewEngine(workDir string) *Engine {
	return &Engine{
		state:    StateUnloaded,
		workDir:  workDir,
		runner:   runCommand,
		lookPath: exec.LookPath,
	}
}

// WithLookPath overrides binary resolution (for tests).
func (e *Engine) WithLookPath(fn func(string) (string, error)) *Engine {
	e.lookPath = fn
	return e
}

// WithRunner overrides the command runner (for tests).
func (e *Engine) WithRunner(r Runner) *Engine {
	e.runner = r
	return e
}

// WithProber overrides the duration prober (for tests).
func (e *Engine) WithProber(p Prober) *Engine {
	e.prober = p
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Load resolves the engine binary and prepares the workspace. Idempotent:
// calling it while Loading or Ready is a no-op, so callers may repeat it
// after a cancellation left the engine suspect.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateLoading || e.state == StateReady {
		e.mu.Unlock()
		return nil
	}
	if e.state == StateConverting {
		e.mu.Unlock()
		return fmt.Errorf("cannot load engine while converting")
	}
	e.state = StateLoading
	e.mu.Unlock()

	fail := func(err error) error {
		e.setState(StateUnloaded)
		return err
	}

	binary, err := e.lookPath("ffmpeg")
	if err != nil {
		return fail(fmt.Errorf("ffmpeg binary not found: %w", err))
	}
	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return fail(fmt.Errorf("create transcoder workspace: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	e.mu.Lock()
	e.binary = binary
	e.state = StateReady
	e.mu.Unlock()
	log.Infof("[Transcoder] Engine loaded: %s", binary)
	return nil
}

// Convert extracts the best-quality audio stream of the input video into a
// constant-quality MP3. Progress is emitted as a monotonically increasing
// 0-100 integer via sink. A cancelled context aborts the engine process and
// returns ErrCancelled; the engine is marked Unloaded afterwards because its
// internal state is suspect.
func (e *Engine) Convert(ctx context.Context, inputPath string, sink ProgressFunc) (*AudioArtifact, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, ErrNoInput
	}

	e.mu.Lock()
	if e.state != StateReady {
		e.mu.Unlock()
		return nil, ErrNotReady
	}
	e.state = StateConverting
	binary := e.binary
	e.mu.Unlock()

	if sink == nil {
		sink = func(int) {}
	}
	sink(0)

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(e.workDir, base+"_audio.mp3")

	// Duration is only needed to scale progress; a probe failure falls back
	// to coarse progress, not a conversion error.
	var total time.Duration
	if e.prober != nil {
		if d, err := e.prober(ctx, inputPath); err == nil {
			total = d
		}
	} else if d, err := probeDuration(ctx, inputPath); err == nil {
		total = d
	}

	progress := newProgressParser(total, sink)
	args := []string{
		"-i", inputPath,
		"-q:a", "0",
		"-map", "a",
		"-progress", "pipe:1",
		"-nostats",
		"-y", outputPath,
	}

	err := e.runner(ctx, progress, binary, args...)
	if err != nil {
		_ = os.Remove(outputPath)
		if ctx.Err() != nil {
			// Engine process was killed mid-write; force a reload before the
			// next conversion.
			e.setState(StateUnloaded)
			return nil, ErrCancelled
		}
		e.setState(StateReady)
		return nil, fmt.Errorf("audio extraction failed: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		e.setState(StateReady)
		return nil, fmt.Errorf("engine produced no output: %w", err)
	}

	sink(100)
	e.setState(StateReady)

	return &AudioArtifact{
		Path:     outputPath,
		FileName: base + "_audio.mp3",
		Size:     info.Size(),
		MimeType: "audio/mpeg",
	}, nil
}

// Dispose releases the workspace and returns the engine to Unloaded.
func (e *Engine) Dispose() {
	e.setState(StateUnloaded)
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func runCommand(ctx context.Context, stdout io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > 512 {
			tail = tail[len(tail)-512:]
		}
		if tail != "" {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(tail))
		}
		return err
	}
	return nil
}

// probeDuration asks ffprobe for the container duration.
func probeDuration(ctx context.Context, input string) (time.Duration, error) {
	binary, err := exec.LookPath("ffprobe")
	if err != nil {
		return 0, err
	}
	out, err := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	).Output()
	if err != nil {
		return 0, err
	}
	seconds := strings.TrimSpace(string(out))
	d, err := time.ParseDuration(seconds + "s")
	if err != nil {
		return 0, err
	}
	return d, nil
}

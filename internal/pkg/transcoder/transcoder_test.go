package transcoder

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, runner Runner) *Engine {
	t.Helper()
	e := NewEngine(t.TempDir()).
		WithLookPath(func(string) (string, error) { return "/usr/bin/ffmpeg", nil }).
		WithProber(func(context.Context, string) (time.Duration, error) { return 10 * time.Second, nil })
	if runner != nil {
		e.WithRunner(runner)
	}
	return e
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "talk.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0o644))
	return path
}

// outputWritingRunner pretends to be the engine: it emits progress lines and
// creates the requested output file.
func outputWritingRunner(progressLines string) Runner {
	return func(ctx context.Context, stdout io.Writer, name string, args ...string) error {
		if progressLines != "" {
			if _, err := io.WriteString(stdout, progressLines); err != nil {
				return err
			}
		}
		output := args[len(args)-1]
		return os.WriteFile(output, []byte("mp3 bytes"), 0o644)
	}
}

func TestConvertRequiresLoadedEngine(t *testing.T) {
	e := testEngine(t, outputWritingRunner(""))

	_, err := e.Convert(context.Background(), "whatever.mp4", nil)
	require.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, StateUnloaded, e.State())
}

func TestConvertRequiresInput(t *testing.T) {
	e := testEngine(t, outputWritingRunner(""))
	require.NoError(t, e.Load(context.Background()))

	_, err := e.Convert(context.Background(), "  ", nil)
	require.ErrorIs(t, err, ErrNoInput)
}

func TestLoadIsIdempotent(t *testing.T) {
	e := testEngine(t, outputWritingRunner(""))

	require.NoError(t, e.Load(context.Background()))
	require.Equal(t, StateReady, e.State())
	require.NoError(t, e.Load(context.Background()))
	require.Equal(t, StateReady, e.State())
}

func TestConvertProducesArtifactAndProgress(t *testing.T) {
	lines := "out_time_us=2500000\nprogress=continue\nout_time_us=5000000\nout_time_us=10000000\nprogress=end\n"
	e := testEngine(t, outputWritingRunner(lines))
	require.NoError(t, e.Load(context.Background()))
	input := writeInput(t, t.TempDir())

	var seen []int
	artifact, err := e.Convert(context.Background(), input, func(p int) { seen = append(seen, p) })
	require.NoError(t, err)

	assert.Equal(t, "talk_audio.mp3", artifact.FileName)
	assert.Equal(t, "audio/mpeg", artifact.MimeType)
	assert.FileExists(t, artifact.Path)
	assert.Greater(t, artifact.Size, int64(0))
	assert.Equal(t, StateReady, e.State())

	// Progress is monotonically increasing and ends at 100.
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1], "progress must increase")
	}
	assert.Equal(t, 0, seen[0])
	assert.Equal(t, 100, seen[len(seen)-1])
}

func TestConvertEngineFailure(t *testing.T) {
	e := testEngine(t, func(ctx context.Context, stdout io.Writer, name string, args ...string) error {
		return errors.New("Invalid data found when processing input")
	})
	require.NoError(t, e.Load(context.Background()))
	input := writeInput(t, t.TempDir())

	_, err := e.Convert(context.Background(), input, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCancelled)
	assert.Contains(t, err.Error(), "Invalid data")
	assert.Equal(t, StateReady, e.State(), "plain failures keep the engine usable")
}

func TestConvertCancellation(t *testing.T) {
	started := make(chan struct{})
	e := testEngine(t, func(ctx context.Context, stdout io.Writer, name string, args ...string) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, e.Load(context.Background()))
	input := writeInput(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := e.Convert(ctx, input, nil)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateUnloaded, e.State(), "cancel leaves the engine suspect; reload required")

	// A fresh convert after reload must work.
	e.WithRunner(outputWritingRunner(""))
	require.NoError(t, e.Load(context.Background()))
	_, err = e.Convert(context.Background(), input, nil)
	require.NoError(t, err)
}

func TestProgressParserCapsAt99AndStaysMonotonic(t *testing.T) {
	var seen []int
	p := newProgressParser(10*time.Second, func(pct int) { seen = append(seen, pct) })

	// Split writes across line boundaries.
	_, err := p.Write([]byte("out_time_us=50"))
	require.NoError(t, err)
	_, err = p.Write([]byte("00000\nout_time_us=2000000\nout_time_us=9900000\nout_time_us=20000000\n"))
	require.NoError(t, err)

	assert.Equal(t, []int{50, 99}, seen, "repeats and regressions are dropped, overshoot capped at 99")
}

func TestProgressParserNoDurationEmitsNothing(t *testing.T) {
	called := false
	p := newProgressParser(0, func(int) { called = true })
	_, err := p.Write([]byte("out_time_us=1000000\n"))
	require.NoError(t, err)
	assert.False(t, called)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/vidscribe/VidScribe/app/models"
	"github.com/vidscribe/VidScribe/internal/pkg/entitlements"
	"github.com/vidscribe/VidScribe/internal/pkg/transcoder"
	"github.com/vidscribe/VidScribe/internal/pkg/usage"
)

// Converter is the media transcoder adapter.
type Converter interface {
	Load(ctx context.Context) error
	Convert(ctx context.Context, inputPath string, sink transcoder.ProgressFunc) (*transcoder.AudioArtifact, error)
}

// Transcriber is the hosted speech-to-text adapter.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, sink func(int)) (string, error)
}

// ArticleWriter is the hosted text-generation adapter.
type ArticleWriter interface {
	GenerateArticle(ctx context.Context, transcript string, sink func(int)) (string, error)
}

// Ledger is the slice of the usage ledger the orchestrator needs.
type Ledger interface {
	CheckLimit(ctx context.Context, userID uint, featureType string) usage.LimitCheck
	RecordTranscription(ctx context.Context, userID uint, elapsed time.Duration) error
	RecordArticle(ctx context.Context, userID uint) error
}

// StatusSink mirrors stage and progress changes somewhere pollable.
type StatusSink interface {
	Publish(sessionID string, stage Stage, progress int)
}

type noopSink struct{}

func (noopSink) Publish(string, Stage, int) {}

// Orchestrator sequences Transcoder → Transcription → Article according to
// the user-selected toggles, enforcing quota checks before each paid step.
// The three stages are strictly sequential: each consumes the previous
// stage's output. Any stage's failure halts the chain; artifacts produced by
// completed stages always survive.
type Orchestrator struct {
	engine Converter
	speech Transcriber
	writer ArticleWriter
	ledger Ledger
	status StatusSink
}

// New creates an orchestrator. The engine is an injected resource handle, not
// ambient state: callers own its lifecycle.
func New(engine Converter, speech Transcriber, writer ArticleWriter, ledger Ledger) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		speech: speech,
		writer: writer,
		ledger: ledger,
		status: noopSink{},
	}
}

// WithStatusSink mirrors progress updates into the given sink.
func (o *Orchestrator) WithStatusSink(sink StatusSink) *Orchestrator {
	if sink != nil {
		o.status = sink
	}
	return o
}

// Run drives one session through the pipeline. It never returns an error to
// the caller: every failure is absorbed into the session state so nothing
// crosses into the interface layer unhandled.
func (o *Orchestrator) Run(ctx context.Context, sess *Session, opts Options) {
	sess.begin()
	o.publish(sess)

	if !o.convert(ctx, sess) {
		return
	}

	if opts.Transcribe {
		proceed, transcribed := o.transcribe(ctx, sess)
		if !proceed {
			return
		}
		if transcribed && opts.WriteArticle {
			if !o.writeArticle(ctx, sess) {
				return
			}
		}
	}

	sess.complete()
	o.publish(sess)
}

// convert runs the transcoding stage. Returns false when the pipeline ended
// (cancelled or failed).
func (o *Orchestrator) convert(ctx context.Context, sess *Session) bool {
	// A cancelled run may have left the engine suspect; Load is a no-op when Ready.
	if err := o.engine.Load(ctx); err != nil {
		o.terminate(ctx, sess, err)
		return false
	}

	audio, err := o.engine.Convert(ctx, sess.SourceVideo, func(p int) {
		sess.setProgress(p)
		o.publish(sess)
	})
	if err != nil {
		o.terminate(ctx, sess, err)
		return false
	}

	sess.setAudio(audio)
	return true
}

// transcribe runs the speech-to-text stage if quota allows. The first return
// reports whether the pipeline may continue; the second whether a transcript
// was produced.
func (o *Orchestrator) transcribe(ctx context.Context, sess *Session) (bool, bool) {
	check := o.ledger.CheckLimit(ctx, sess.UserID, models.FeatureTranscription)
	if check.Reached {
		// Quota exhaustion is expected, not an error: the stage is skipped,
		// the audio artifact stays, and the limit is named.
		sess.addNotice(fmt.Sprintf(
			"You've reached your monthly transcription limit (%s minutes). Please upgrade your plan to continue.",
			formatLimit(check.Limit)))
		sess.complete()
		o.publish(sess)
		return false, false
	}

	sess.enterStage(StageTranscribing)
	o.publish(sess)

	audioFile, err := os.Open(sess.Audio().Path)
	if err != nil {
		o.terminate(ctx, sess, err)
		return false, false
	}
	defer audioFile.Close()

	started := time.Now()
	transcript, err := o.speech.Transcribe(ctx, audioFile, func(p int) {
		sess.setProgress(p)
		o.publish(sess)
	})
	if err != nil {
		o.terminate(ctx, sess, err)
		return false, false
	}
	sess.setTranscript(transcript)

	// Billed by wall-clock call duration. Recording is fire-and-forget: a
	// failed write under-counts rather than failing the pipeline.
	if err := o.ledger.RecordTranscription(ctx, sess.UserID, time.Since(started)); err != nil {
		log.Warnf("[Pipeline] Failed to record transcription usage for user %d: %v", sess.UserID, err)
	}
	return true, true
}

// writeArticle runs the article-generation stage if quota allows. Returns
// false when the pipeline ended.
func (o *Orchestrator) writeArticle(ctx context.Context, sess *Session) bool {
	check := o.ledger.CheckLimit(ctx, sess.UserID, models.FeatureArticle)
	if check.Reached {
		sess.addNotice(fmt.Sprintf(
			"You've reached your monthly article generation limit (%s articles). Please upgrade your plan to continue.",
			formatLimit(check.Limit)))
		sess.complete()
		o.publish(sess)
		return false
	}

	sess.enterStage(StageGeneratingArticle)
	o.publish(sess)

	article, err := o.writer.GenerateArticle(ctx, sess.Transcript(), func(p int) {
		sess.setProgress(p)
		o.publish(sess)
	})
	if err != nil {
		// Article failure does not roll back the transcript and audio that
		// already exist; the narrower error is surfaced alongside them.
		o.terminate(ctx, sess, err)
		return false
	}
	sess.setArticle(article)

	if err := o.ledger.RecordArticle(ctx, sess.UserID); err != nil {
		log.Warnf("[Pipeline] Failed to record article usage for user %d: %v", sess.UserID, err)
	}
	return true
}

// terminate converts an adapter error into the right terminal state. A
// cancellation is an intentional stop and never reported as an error.
func (o *Orchestrator) terminate(ctx context.Context, sess *Session, err error) {
	if errors.Is(err, transcoder.ErrCancelled) || ctx.Err() != nil {
		sess.cancel()
	} else {
		sess.fail(err.Error())
	}
	o.publish(sess)
}

func (o *Orchestrator) publish(sess *Session) {
	snap := sess.Snapshot()
	o.status.Publish(snap.ID, snap.Stage, snap.Progress)
}

func formatLimit(limit float64) string {
	if entitlements.IsUnlimited(limit) {
		return "unlimited"
	}
	return strconv.FormatFloat(limit, 'f', -1, 64)
}

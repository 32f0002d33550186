package pipeline

import (
	"context"
	"errors"
)

// Runner drives one pipeline run to a terminal stage. *Orchestrator is the
// standard implementation; PerUserRunner wraps it to bind the caller's own
// inference credentials.
type Runner interface {
	Run(ctx context.Context, sess *Session, opts Options)
}

// ErrNoAPIKey is reported when a run needs the hosted inference services but
// the user has not configured a key.
var ErrNoAPIKey = errors.New("add your Hugging Face API key in settings to use transcription")

// ClientFactory resolves the per-user speech and article adapters. It returns
// ErrNoAPIKey (or wraps it) when the user has no stored credential.
type ClientFactory func(userID uint) (Transcriber, ArticleWriter, error)

// PerUserRunner builds a fresh orchestrator for every run so each user's
// inference calls carry their own API key.
type PerUserRunner struct {
	engine  Converter
	ledger  Ledger
	status  StatusSink
	clients ClientFactory
}

// NewPerUserRunner creates a runner around a shared engine and ledger.
func NewPerUserRunner(engine Converter, ledger Ledger, clients ClientFactory) *PerUserRunner {
	return &PerUserRunner{
		engine:  engine,
		ledger:  ledger,
		status:  noopSink{},
		clients: clients,
	}
}

// WithStatusSink mirrors progress updates into the given sink.
func (r *PerUserRunner) WithStatusSink(sink StatusSink) *PerUserRunner {
	if sink != nil {
		r.status = sink
	}
	return r
}

// Run resolves the user's adapters and drives the pipeline. A missing API key
// only matters when a stage that needs it is selected.
func (r *PerUserRunner) Run(ctx context.Context, sess *Session, opts Options) {
	speech, writer, err := r.clients(sess.UserID)
	if err != nil && opts.Transcribe {
		sess.begin()
		sess.fail(err.Error())
		snap := sess.Snapshot()
		r.status.Publish(snap.ID, snap.Stage, snap.Progress)
		return
	}

	New(r.engine, speech, writer, r.ledger).WithStatusSink(r.status).Run(ctx, sess, opts)
}

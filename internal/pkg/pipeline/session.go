package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidscribe/VidScribe/internal/pkg/transcoder"
)

// Stage is one phase of the conversion pipeline.
type Stage string

const (
	StageIdle              Stage = "idle"
	StageConverting        Stage = "converting"
	StageTranscribing      Stage = "transcribing"
	StageGeneratingArticle Stage = "generating_article"
	StageComplete          Stage = "complete"
	StageCancelled         Stage = "cancelled"
	StageFailed            Stage = "failed"
)

// Options selects the optional pipeline stages.
type Options struct {
	Transcribe   bool
	WriteArticle bool
}

// Session holds the per-conversion artifact set. It lives for one pipeline
// run, is owned exclusively by the orchestrator while a run is active, and is
// never persisted: navigation or reset destroys it.
type Session struct {
	mu sync.Mutex

	ID          string
	UserID      uint
	SourceVideo string

	audio      *transcoder.AudioArtifact
	transcript string
	article    string

	stage    Stage
	progress int
	errMsg   string
	notice   string

	startedAt  time.Time
	finishedAt time.Time
}

// Snapshot is a read-only copy of the session state for the UI.
type Snapshot struct {
	ID         string                    `json:"id"`
	Stage      Stage                     `json:"stage"`
	Progress   int                       `json:"progress"`
	Error      string                    `json:"error,omitempty"`
	Notice     string                    `json:"notice,omitempty"`
	Audio      *transcoder.AudioArtifact `json:"audio,omitempty"`
	Transcript string                    `json:"transcript,omitempty"`
	Article    string                    `json:"article,omitempty"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt *time.Time                `json:"finished_at,omitempty"`
}

// NewSession creates an idle session for a selected source video.
func NewSession(userID uint, sourceVideo string) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		SourceVideo: sourceVideo,
		stage:       StageIdle,
	}
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:         s.ID,
		Stage:      s.stage,
		Progress:   s.progress,
		Error:      s.errMsg,
		Notice:     s.notice,
		Audio:      s.audio,
		Transcript: s.transcript,
		Article:    s.article,
		StartedAt:  s.startedAt,
	}
	if !s.finishedAt.IsZero() {
		finished := s.finishedAt
		snap.FinishedAt = &finished
	}
	return snap
}

// Stage returns the current pipeline stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Active reports whether a pipeline run owns this session right now.
func (s *Session) Active() bool {
	switch s.Stage() {
	case StageConverting, StageTranscribing, StageGeneratingArticle:
		return true
	default:
		return false
	}
}

// Audio returns the audio artifact produced so far, if any.
func (s *Session) Audio() *transcoder.AudioArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// Transcript returns the transcript produced so far.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Article returns the generated article, if any.
func (s *Session) Article() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.article
}

func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A fresh run clears every prior artifact and error.
	s.audio = nil
	s.transcript = ""
	s.article = ""
	s.errMsg = ""
	s.notice = ""
	s.progress = 0
	s.stage = StageConverting
	s.startedAt = time.Now()
	s.finishedAt = time.Time{}
}

func (s *Session) enterStage(stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
	s.progress = 0
}

func (s *Session) setProgress(p int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p > s.progress {
		s.progress = p
	}
}

func (s *Session) setAudio(a *transcoder.AudioArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = a
}

func (s *Session) setTranscript(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = text
}

func (s *Session) setArticle(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.article = text
}

func (s *Session) addNotice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == "" {
		s.notice = msg
	} else {
		s.notice += " " + msg
	}
}

func (s *Session) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = StageComplete
	s.progress = 100
	s.finishedAt = time.Now()
}

func (s *Session) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = StageCancelled
	// Shared UI counters return to neutral after an intentional stop.
	s.progress = 0
	s.finishedAt = time.Now()
}

func (s *Session) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = StageFailed
	s.errMsg = msg
	s.finishedAt = time.Now()
}

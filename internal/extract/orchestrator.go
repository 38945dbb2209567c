package extract

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/J-Rosales/st-scene-state/internal/generator"
	"github.com/J-Rosales/st-scene-state/internal/markup"
	"github.com/J-Rosales/st-scene-state/internal/pipeline"
	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// inferenceFailedConfidence is the confidence of the fallback failure note.
const inferenceFailedConfidence = 0.4

// roundState tracks the orchestrator's position in one inference round.
type roundState int

const (
	stateIdle roundState = iota
	stateRequesting
	stateParsing
	stateRepairRequested
	stateRepairParsing
	stateSuccess
	stateFailed
)

func (s roundState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRequesting:
		return "requesting"
	case stateParsing:
		return "parsing"
	case stateRepairRequested:
		return "repair_requested"
	case stateRepairParsing:
		return "repair_parsing"
	case stateSuccess:
		return "success"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// Request is the explicit per-round conversation state. The previous snapshot
// is read-only input; a new snapshot is always produced.
type Request struct {
	ConversationID string
	Messages       []scene.Message
	Previous       *scene.Snapshot
	PreviousText   string
	Locks          scene.Locks
	Pins           scene.PinSet
	Options        Options
}

// Result is the outcome of one round. Snapshot and Text are always set and
// structurally valid; Err is the human-readable failure message when the
// fallback path was taken.
type Result struct {
	Snapshot  *scene.Snapshot
	Text      string
	Narrative []scene.NarrativeLine
	Err       string
	FellBack  bool
}

// Orchestrator runs extraction rounds. Rounds for the same conversation are
// single-flight: an overlapping round is rejected with ErrRoundInProgress
// rather than interleaved.
type Orchestrator struct {
	gen generator.Generator
	log *zap.Logger
	now func() time.Time

	mu       sync.Mutex
	inflight map[string]bool
}

// New creates an orchestrator. A nil logger disables logging; a nil generator
// makes every round fall back with a generator-unavailable error.
func New(gen generator.Generator, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		gen:      gen,
		log:      log,
		now:      time.Now,
		inflight: make(map[string]bool),
	}
}

// RunRound executes one full extraction round. It always returns a valid
// Result; the only error condition is an overlapping round for the same
// conversation.
func (o *Orchestrator) RunRound(ctx context.Context, req Request) (*Result, error) {
	if err := o.acquire(req.ConversationID); err != nil {
		return nil, err
	}
	defer o.release(req.ConversationID)

	window := Window(req.Messages, req.Options.WindowK)
	tree, failure := o.obtainTree(ctx, req)
	if failure != nil {
		o.log.Warn("extraction round fell back",
			zap.String("conversation", req.ConversationID),
			zap.Error(failure))
		return o.fallback(req, failure), nil
	}

	snapshot := scene.FromTree(tree)
	pipeline.Apply(snapshot, req.Previous, pipeline.Options{
		Window:     window,
		Locks:      req.Locks,
		Pins:       req.Pins,
		MaxPresent: req.Options.MaxPresent,
		Evidence:   req.Options.Evidence,
	})
	o.stampMeta(snapshot, req.Options)
	text := markup.Dump(scene.ToTree(snapshot))
	o.log.Info("extraction round succeeded",
		zap.String("conversation", req.ConversationID),
		zap.Int("agents", len(snapshot.Agents)),
		zap.Int("conflicts", len(snapshot.Conflicts)))
	return &Result{
		Snapshot:  snapshot,
		Text:      text,
		Narrative: NarrativeLines(snapshot, text),
	}, nil
}

// obtainTree walks the round state machine up to a parsed tree or a terminal
// failure: request, parse, one repair retry, done.
func (o *Orchestrator) obtainTree(ctx context.Context, req Request) (markup.Node, error) {
	st := stateRequesting
	o.logState(req.ConversationID, st)
	prompt := BuildExtractionPrompt(req.Messages, req.PreviousText, req.Options)

	raw, err := o.generate(ctx, prompt, req.Options)
	if err == nil {
		st = stateParsing
		o.logState(req.ConversationID, st)
		tree, perr := markup.Parse(raw)
		if perr == nil {
			return tree, nil
		}
		err = fmt.Errorf("parse failure: %w", perr)
	}

	st = stateRepairRequested
	o.logState(req.ConversationID, st)
	repaired, rerr := o.generate(ctx, BuildRepairPrompt(raw, req.Options), req.Options)
	if rerr != nil {
		return nil, fmt.Errorf("%w: %s (after %s)", ErrRepairFailed, rerr, err)
	}
	st = stateRepairParsing
	o.logState(req.ConversationID, st)
	tree, perr := markup.Parse(repaired)
	if perr != nil {
		return nil, fmt.Errorf("%w: %s (after %s)", ErrRepairFailed, perr, err)
	}
	return tree, nil
}

// generate calls the generator port and validates the raw output.
func (o *Orchestrator) generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if o.gen == nil {
		return "", generator.ErrUnavailable
	}
	raw, err := generator.WithTimeout(o.gen, opts.Timeout).Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", ErrEmptyOutput
	}
	if opts.OutputCharCap > 0 && len(raw) > opts.OutputCharCap {
		return raw, ErrOutputTooLarge
	}
	return raw, nil
}

// fallback deep-copies the previous snapshot (or starts from the empty
// default) and appends the inference-failure note.
func (o *Orchestrator) fallback(req Request, cause error) *Result {
	var snapshot *scene.Snapshot
	if req.Previous != nil {
		snapshot = req.Previous.Clone()
	} else {
		snapshot = scene.Default()
	}
	snapshot.Conflicts = append(snapshot.Conflicts, scene.ConflictNote{
		Note:       "inference_failed",
		Confidence: inferenceFailedConfidence,
	})
	scene.Canonicalize(snapshot)
	text := markup.Dump(scene.ToTree(snapshot))
	return &Result{
		Snapshot:  snapshot,
		Text:      text,
		Narrative: NarrativeLines(snapshot, text),
		Err:       cause.Error(),
		FellBack:  true,
	}
}

func (o *Orchestrator) stampMeta(s *scene.Snapshot, opts Options) {
	s.Meta.UpdatedAt = o.now().UTC().Format(time.RFC3339)
	s.Meta.Mode = opts.Mode
	s.Meta.WindowK = opts.WindowK
	s.Meta.AllowImpliedObjects = opts.AllowImpliedObjects
	if s.SchemaVersion == "" {
		s.SchemaVersion = scene.SchemaVersion
	}
}

func (o *Orchestrator) acquire(conversationID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight[conversationID] {
		return ErrRoundInProgress
	}
	o.inflight[conversationID] = true
	return nil
}

func (o *Orchestrator) release(conversationID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, conversationID)
}

func (o *Orchestrator) logState(conversationID string, st roundState) {
	o.log.Debug("round state",
		zap.String("conversation", conversationID),
		zap.String("state", st.String()))
}

// Package suggest implements the editor session: it watches title and body
// edits, debounces them into suggestion requests, and tracks the lifecycle
// of the single inline suggestion shown to the writer.
package suggest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/prosewrites/draftline/internal/assist"
	"go.uber.org/zap"
)

// State is the lifecycle state of the session's suggestion.
type State int

const (
	// StateIdle means no suggestion is pending, loading, or shown.
	StateIdle State = iota
	// StatePending means the debounce timer is running.
	StatePending
	// StateLoading means a request is in flight.
	StateLoading
	// StateShown means a suggestion is visible.
	StateShown
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateLoading:
		return "loading"
	case StateShown:
		return "shown"
	default:
		return "unknown"
	}
}

// Suggestion is the suggestion currently shown to the writer.
type Suggestion struct {
	// Raw is the text as returned by the completion service.
	Raw string
	// Text is Raw with the already-typed prefix removed.
	Text string
	// Type is the suggestion type reported by the service.
	Type string
	// Anchor is the cursor offset in the body, in runes, when the request
	// was made. Accepting inserts Text here.
	Anchor int
	// Seq is the request sequence number that produced the suggestion.
	Seq int64
}

// Result is the outcome of a suggestion request. It is produced off the UI
// thread and applied with Session.Deliver.
type Result struct {
	// Seq is the sequence number captured when the request was issued.
	Seq int64
	// Anchor is the cursor offset captured when the request was issued.
	Anchor int
	// Suggestion is the picked suggestion, nil if the service returned none.
	Suggestion *assist.Suggestion
	// Err is any error from the completion service.
	Err error
}

// Outcome describes what Deliver did with a result.
type Outcome int

const (
	// OutcomeStale means a newer edit or request superseded the result.
	OutcomeStale Outcome = iota
	// OutcomeShown means the suggestion is now visible.
	OutcomeShown
	// OutcomeEmpty means the service had nothing new to suggest.
	OutcomeEmpty
	// OutcomeFailed means the request failed; the error was logged.
	OutcomeFailed
	// OutcomeDenied means the account lacks access; see Session.TakeDenied.
	OutcomeDenied
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeStale:
		return "stale"
	case OutcomeShown:
		return "shown"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	case OutcomeDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Accepted describes the body after a suggestion was accepted.
type Accepted struct {
	// Text is the inserted text.
	Text string
	// Body is the full body after insertion.
	Body string
	// Cursor is the rune offset just past the inserted text.
	Cursor int
}

// Session owns the state of one editing session.
type Session struct {
	mu sync.Mutex

	title  string
	body   string
	cursor int
	docID  string

	state  State
	active *Suggestion
	denied *assist.AccessDeniedError
	status Status

	// seq advances on every edit, dismiss, accept and request so that only
	// the latest request's result can be applied.
	seq atomic.Int64

	gate      *Gate
	completer assist.Completer
	timeout   time.Duration
	onChange  func(title, body string)
	logger    *zap.Logger
}

// Config holds configuration for creating a Session.
type Config struct {
	// Completer produces suggestions. If nil, no requests are made.
	Completer assist.Completer

	// Debounce is the quiet period before a request fires.
	// Defaults to 1500ms if not set.
	Debounce time.Duration

	// RequestTimeout bounds a single request. Zero means no timeout.
	RequestTimeout time.Duration

	// OnChange is called after the title or body changes, including when
	// a suggestion is accepted. It is where auto-save hooks in.
	OnChange func(title, body string)

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewSession creates a new Session with the given configuration.
func NewSession(cfg Config) *Session {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 1500 * time.Millisecond
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		state:     StateIdle,
		status:    Status{Kind: StatusReady, Message: MessageStart},
		gate:      NewGate(debounce),
		completer: cfg.Completer,
		timeout:   cfg.RequestTimeout,
		onChange:  cfg.OnChange,
		logger:    logger,
	}
}

// Load replaces the session content without triggering a request.
func (s *Session) Load(docID, title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.docID = docID
	s.title = title
	s.body = body
	s.cursor = utf8.RuneCountInString(body)
	s.state = StateIdle
	if strings.TrimSpace(title) == "" {
		s.status = Status{Kind: StatusInfo, Message: MessageNeedTitle}
	} else {
		s.status = Status{Kind: StatusReady, Message: MessageReady}
	}
}

// SetDocumentID sets the id sent as current_text_id.
func (s *Session) SetDocumentID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docID = id
}

// SetTitle records a title edit. It clears any suggestion and, when both
// title and body have content, arms the debounce gate. The returned channel
// yields the request result, or is nil when no request was scheduled.
func (s *Session) SetTitle(title string) <-chan Result {
	s.mu.Lock()

	s.title = title
	s.clearLocked()

	var ch <-chan Result
	switch {
	case strings.TrimSpace(title) == "":
		s.state = StateIdle
		s.status = Status{Kind: StatusInfo, Message: MessageNeedTitle}
	case strings.TrimSpace(s.body) == "":
		s.state = StateIdle
		s.status = Status{Kind: StatusReady, Message: MessageStartWriting}
	default:
		s.status = Status{Kind: StatusReady, Message: MessageReady}
		ch = s.armLocked()
	}

	body := s.body
	s.mu.Unlock()

	s.notifyChange(title, body)
	return ch
}

// SetBody records a body edit with the cursor at the given rune offset.
// It clears any suggestion and arms the debounce gate when a title is set.
// The returned channel yields the request result, or is nil when no request
// was scheduled.
func (s *Session) SetBody(body string, cursor int) <-chan Result {
	s.mu.Lock()

	s.body = body
	s.cursor = clampCursor(cursor, body)
	s.clearLocked()

	var ch <-chan Result
	if strings.TrimSpace(s.title) == "" {
		s.state = StateIdle
		s.status = Status{Kind: StatusInfo, Message: MessageNeedTitle}
	} else {
		s.status = Status{Kind: StatusReady, Message: MessageReady}
		ch = s.armLocked()
	}

	title := s.title
	s.mu.Unlock()

	s.notifyChange(title, body)
	return ch
}

// Accept inserts the shown suggestion at its anchor, moves the cursor past
// it, clears the suggestion and re-arms the debounce gate for one follow-up
// request. It returns false when no suggestion is shown.
func (s *Session) Accept() (Accepted, <-chan Result, bool) {
	s.mu.Lock()

	if s.state != StateShown || s.active == nil {
		s.mu.Unlock()
		return Accepted{}, nil, false
	}

	text := s.active.Text
	s.body, s.cursor = insertAt(s.body, s.active.Anchor, text)
	s.clearLocked()
	s.status = Status{Kind: StatusInfo, Message: MessageApplied}

	s.logger.Debug("accepted suggestion", zap.String("text", text), zap.Int("cursor", s.cursor))

	accepted := Accepted{Text: text, Body: s.body, Cursor: s.cursor}
	ch := s.armLocked()
	title := s.title
	s.mu.Unlock()

	s.notifyChange(title, accepted.Body)
	return accepted, ch, true
}

// Retry drops the shown suggestion and immediately requests a new one,
// bypassing the debounce. It returns nil when no suggestion is shown.
func (s *Session) Retry() <-chan Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateShown || s.active == nil {
		return nil
	}

	s.clearLocked()
	s.status = Status{Kind: StatusBusy, Message: MessageRetrying}

	if s.completer == nil {
		s.state = StateIdle
		s.status = Status{Kind: StatusReady, Message: MessageReady}
		return nil
	}

	ctx := s.gate.Arm()
	expected := s.seq.Load()
	s.state = StateLoading

	return s.run(ctx, expected, false)
}

// Dismiss clears the suggestion and cancels any pending or in-flight request.
// It returns false when there was nothing to dismiss.
func (s *Session) Dismiss() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadSomething := s.state != StateIdle
	s.clearLocked()
	s.state = StateIdle
	if hadSomething {
		s.status = Status{Kind: StatusInfo, Message: MessageDismissed}
	}

	return hadSomething
}

// Deliver applies a request result if it is still current. A result whose
// sequence number differs from the live counter is dropped without touching
// any state.
func (s *Session) Deliver(r Result) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.seq.Load(); r.Seq != current {
		s.logger.Debug("discarding stale suggestion",
			zap.Int64("expectedSeq", current),
			zap.Int64("actualSeq", r.Seq),
		)
		return OutcomeStale
	}

	if r.Err != nil {
		s.state = StateIdle

		var denied *assist.AccessDeniedError
		if errors.As(r.Err, &denied) {
			s.logger.Info("suggestion access denied",
				zap.String("subscriptionStatus", denied.SubscriptionStatus),
				zap.Bool("trialExpired", denied.TrialExpired),
			)
			s.denied = denied
			s.status = Status{Kind: StatusFailed, Message: MessageDenied}
			return OutcomeDenied
		}

		s.logger.Warn("suggestion request failed", zap.Error(r.Err))
		s.status = Status{Kind: StatusFailed, Message: MessageFailed}
		return OutcomeFailed
	}

	if r.Suggestion == nil {
		s.state = StateIdle
		s.status = Status{Kind: StatusInfo, Message: MessageNoSuggestions}
		return OutcomeEmpty
	}

	cleaned := CleanSuggestion(r.Suggestion.Text, s.body)
	if cleaned == "" {
		s.state = StateIdle
		s.status = Status{Kind: StatusInfo, Message: MessageNoSuggestions}
		return OutcomeEmpty
	}

	s.active = &Suggestion{
		Raw:    r.Suggestion.Text,
		Text:   cleaned,
		Type:   r.Suggestion.Type,
		Anchor: clampCursor(r.Anchor, s.body),
		Seq:    r.Seq,
	}
	s.state = StateShown
	s.status = Status{Kind: StatusReady, Message: MessageSuggestionReady}

	s.logger.Debug("showing suggestion", zap.String("text", cleaned), zap.Int64("seq", r.Seq))

	return OutcomeShown
}

// TakeDenied returns and clears the access denial recorded by Deliver.
func (s *Session) TakeDenied() *assist.AccessDeniedError {
	s.mu.Lock()
	defer s.mu.Unlock()
	denied := s.denied
	s.denied = nil
	return denied
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active returns a copy of the shown suggestion, if any.
func (s *Session) Active() (Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Suggestion{}, false
	}
	return *s.active, true
}

// HasSuggestion reports whether a suggestion is shown.
func (s *Session) HasSuggestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Title returns the current title.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Body returns the current body.
func (s *Session) Body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body
}

// Cursor returns the cursor rune offset in the body.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// DocumentID returns the id sent as current_text_id.
func (s *Session) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}

// Status returns the current status line.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Seq returns the live sequence number.
func (s *Session) Seq() int64 {
	return s.seq.Load()
}

// Close cancels anything pending.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.state = StateIdle
}

// clearLocked drops the shown suggestion and supersedes anything pending or
// in flight. Must be called with mu held.
func (s *Session) clearLocked() {
	s.active = nil
	s.gate.Cancel()
	s.seq.Add(1)
}

// armLocked starts the debounce wait for a request. Must be called with mu held.
func (s *Session) armLocked() <-chan Result {
	if s.completer == nil {
		s.state = StateIdle
		return nil
	}

	ctx := s.gate.Arm()
	s.state = StatePending

	return s.run(ctx, s.seq.Load(), true)
}

// run waits for the quiet period when debounce is set, then dispatches the
// request unless something superseded it.
func (s *Session) run(ctx context.Context, expected int64, debounce bool) <-chan Result {
	resultCh := make(chan Result, 1)

	go func() {
		defer close(resultCh)

		if debounce && !s.gate.Wait(ctx) {
			return
		}

		result, ok := s.dispatch(ctx, expected)
		if !ok {
			return
		}

		resultCh <- result
	}()

	return resultCh
}

// dispatch issues the request. It captures a fresh sequence number and the
// cursor anchor, then calls the completer.
func (s *Session) dispatch(ctx context.Context, expected int64) (Result, bool) {
	s.mu.Lock()

	if s.seq.Load() != expected || ctx.Err() != nil {
		s.mu.Unlock()
		return Result{}, false
	}

	title := strings.TrimSpace(s.title)
	if title == "" {
		s.state = StateIdle
		s.mu.Unlock()
		return Result{}, false
	}

	seq := s.seq.Add(1)
	req := assist.Request{
		Title: title,
		Text:  strings.TrimSpace(s.body),
	}
	if s.docID != "" {
		id := s.docID
		req.CurrentTextID = &id
	}
	anchor := s.cursor
	s.state = StateLoading
	s.status = Status{Kind: StatusBusy, Message: MessageGenerating}
	s.mu.Unlock()

	s.logger.Debug("requesting suggestion", zap.Int64("seq", seq), zap.Int("anchor", anchor))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	suggestions, err := s.completer.Suggest(ctx, req)

	result := Result{Seq: seq, Anchor: anchor, Err: err}
	if err == nil {
		if picked, ok := assist.Pick(suggestions); ok {
			result.Suggestion = &picked
		}
	}

	return result, true
}

func (s *Session) notifyChange(title, body string) {
	if s.onChange != nil {
		s.onChange(title, body)
	}
}

func clampCursor(cursor int, body string) int {
	if cursor < 0 {
		return 0
	}
	if n := utf8.RuneCountInString(body); cursor > n {
		return n
	}
	return cursor
}

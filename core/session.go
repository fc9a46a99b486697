package core

import (
	"context"
	"crypto/subtle"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// sessionInputBuffer bounds how many dispatched inputs may wait for the
// session loop. Callers await each operation before issuing the next, so the
// buffer only absorbs inputs racing an in-flight lookup.
const sessionInputBuffer = 8

type sessionInputKind int

const (
	inputStart sessionInputKind = iota
	inputSetMailbox
	inputAuthenticate
	inputEnd
)

func (k sessionInputKind) String() string {
	switch k {
	case inputStart:
		return "start"
	case inputSetMailbox:
		return "set_mailbox"
	case inputAuthenticate:
		return "authenticate"
	case inputEnd:
		return "end"
	default:
		return "unknown"
	}
}

type sessionResult struct {
	mailbox Mailbox
	err     error
}

type sessionInput struct {
	kind     sessionInputKind
	domain   string
	number   string
	password string
	// reply is the single-resolution slot for this input. Capacity 1 and
	// exactly one send per input, so the loop never blocks resolving it.
	reply chan sessionResult
}

// Session is one per-call authentication state machine plus its
// request/response surface. All state past construction is owned by the run
// loop goroutine; Init, SetMailbox, Authenticate, and End dispatch inputs to
// the loop and await a single-resolution reply. Inputs are processed strictly
// in arrival order, so a request issued while a lookup is in flight is
// buffered, never dropped.
//
// The hangup subscription is the session's cancellation scope: it cancels the
// session context (preempting in-flight lookups) and forces the loop into the
// terminal state. After the terminal state, every lookup response still in
// flight is discarded and late operations fail fast without panicking.
type Session struct {
	id       string
	channel  Channel
	skipAuth bool

	contexts     ContextStore
	mailboxes    MailboxStore
	promptSvc    PromptService
	promptSounds AuthPromptsConfig
	logger       Logger

	ctx    context.Context
	cancel context.CancelFunc

	inputs     chan sessionInput
	hangupCh   chan struct{}
	hangupOnce sync.Once
	done       chan struct{}

	// loop-owned; never touched outside the run goroutine after start.
	state          SessionState
	vmContext      *Context
	mailbox        *Mailbox
	hangupSub      HangupSubscription
	prompt         PromptHandle
	pendingMailbox []sessionInput
	pendingAuth    []sessionInput

	// mu guards the snapshot and terminal outcome read outside the loop.
	mu            sync.Mutex
	snapshot      SessionSnapshot
	authenticated bool
	endReason     SessionEndReason
	terminalErr   error
}

func newSession(
	id string,
	channel Channel,
	input CreateSessionInput,
	contexts ContextStore,
	mailboxes MailboxStore,
	promptSvc PromptService,
	promptSounds AuthPromptsConfig,
	logger Logger,
) (*Session, error) {
	if channel == nil {
		return nil, goerrors.New("core: session channel is required", goerrors.CategoryBadInput).
			WithTextCode(AuthErrorBadInput)
	}
	if contexts == nil {
		return nil, goerrors.New("core: context store is required", goerrors.CategoryInternal).
			WithTextCode(AuthErrorInternal)
	}
	if mailboxes == nil {
		return nil, goerrors.New("core: mailbox store is required", goerrors.CategoryInternal).
			WithTextCode(AuthErrorInternal)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:           id,
		channel:      channel,
		skipAuth:     input.SkipAuth,
		contexts:     contexts,
		mailboxes:    mailboxes,
		promptSvc:    promptSvc,
		promptSounds: promptSounds,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		inputs:       make(chan sessionInput, sessionInputBuffer),
		hangupCh:     make(chan struct{}),
		done:         make(chan struct{}),
		state:        SessionStateInit,
		snapshot: SessionSnapshot{
			ID:        id,
			ChannelID: channel.ID(),
			State:     SessionStateInit,
			SkipAuth:  input.SkipAuth,
			CreatedAt: time.Now().UTC(),
		},
	}

	sub, err := channel.SubscribeHangup(s.onHangup)
	if err != nil {
		cancel()
		return nil, err
	}
	s.hangupSub = sub

	go s.run()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// ChannelID returns the identifier of the call leg this session is bound to.
func (s *Session) ChannelID() string {
	if s == nil || s.channel == nil {
		return ""
	}
	return s.channel.ID()
}

// Done is closed once the session reaches its terminal state.
func (s *Session) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.done
}

// Snapshot returns a read-only view of the session.
func (s *Session) Snapshot() SessionSnapshot {
	if s == nil {
		return SessionSnapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Init resolves the dialed domain and mailbox number. Valid once, from the
// initial state. An unresolvable domain ends the session; an unresolvable or
// empty mailbox number leaves it open awaiting SetMailbox.
func (s *Session) Init(ctx context.Context, domain, mailboxNumber string) (Mailbox, error) {
	return s.dispatch(ctx, sessionInput{
		kind:   inputStart,
		domain: strings.TrimSpace(domain),
		number: normalizeMailboxNumber(mailboxNumber),
	})
}

// SetMailbox resolves a corrected mailbox number against the session's
// context. An empty number normalizes to "not supplied".
func (s *Session) SetMailbox(ctx context.Context, mailboxNumber string) (Mailbox, error) {
	return s.dispatch(ctx, sessionInput{
		kind:   inputSetMailbox,
		number: normalizeMailboxNumber(mailboxNumber),
	})
}

// Authenticate compares the supplied password against the resolved mailbox.
// A mismatch is retryable; the session stays in the authenticating state.
// Sessions created with SkipAuth resolve immediately for any password.
func (s *Session) Authenticate(ctx context.Context, password string) error {
	if s == nil {
		return ErrSessionComplete()
	}
	if s.skipAuth {
		return nil
	}
	_, err := s.dispatch(ctx, sessionInput{kind: inputAuthenticate, password: password})
	return err
}

// End terminates the session without authenticating, releasing its hangup
// subscription and any active prompt.
func (s *Session) End(ctx context.Context) error {
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	default:
	}
	_, err := s.dispatch(ctx, sessionInput{kind: inputEnd})
	if err != nil && (IsSessionComplete(err) || IsChannelHungup(err)) {
		// Ending a session that already ended is a no-op.
		return nil
	}
	return err
}

// dispatch sends one input to the loop and awaits its single resolution. The
// reply channel is created before the input is handed over, so the resolution
// can never fire before its consumer is attached.
func (s *Session) dispatch(ctx context.Context, in sessionInput) (Mailbox, error) {
	if s == nil {
		return Mailbox{}, ErrSessionComplete()
	}
	select {
	case <-s.done:
		return Mailbox{}, s.terminalOutcome(in.kind)
	default:
	}

	in.reply = make(chan sessionResult, 1)
	select {
	case s.inputs <- in:
	case <-s.done:
		return Mailbox{}, s.terminalOutcome(in.kind)
	case <-ctx.Done():
		return Mailbox{}, ctx.Err()
	}

	select {
	case res := <-in.reply:
		return res.mailbox, res.err
	case <-s.done:
		// The loop resolves everything it read before exiting; an input
		// still queued at shutdown resolves to the terminal outcome here.
		select {
		case res := <-in.reply:
			return res.mailbox, res.err
		default:
			return Mailbox{}, s.terminalOutcome(in.kind)
		}
	case <-ctx.Done():
		return Mailbox{}, ctx.Err()
	}
}

// terminalOutcome is the fail-fast answer for operations on a spent session.
// Misuse is logged, never raised as a panic.
func (s *Session) terminalOutcome(kind sessionInputKind) error {
	s.mu.Lock()
	reason := s.endReason
	authenticated := s.authenticated
	terminalErr := s.terminalErr
	s.mu.Unlock()

	if kind == inputAuthenticate && authenticated {
		return nil
	}
	s.logMisuse(kind, reason)
	if reason == SessionEndHungup {
		return ErrChannelHungup()
	}
	if terminalErr != nil {
		return terminalErr
	}
	return ErrSessionComplete()
}

func (s *Session) onHangup() {
	s.hangupOnce.Do(func() {
		// Cancel first so an in-flight lookup unblocks before the loop
		// observes the hangup.
		s.cancel()
		close(s.hangupCh)
	})
}

func (s *Session) hungup() bool {
	select {
	case <-s.hangupCh:
		return true
	default:
		return false
	}
}

func (s *Session) run() {
	for {
		select {
		case <-s.hangupCh:
			s.terminate(SessionEndHungup, ErrChannelHungup())
			return
		case in := <-s.inputs:
			if s.handle(in) {
				return
			}
		}
	}
}

// handle processes one input to completion, including all synchronous
// branching, before the loop reads the next. Returns true once the session
// reached its terminal state.
func (s *Session) handle(in sessionInput) bool {
	if s.hungup() {
		s.resolveErr(in, ErrChannelHungup())
		s.terminate(SessionEndHungup, ErrChannelHungup())
		return true
	}

	switch in.kind {
	case inputStart:
		if s.state != SessionStateInit {
			s.resolveErr(in, s.invalidStateError(in.kind))
			return false
		}
		return s.handleStart(in)
	case inputSetMailbox:
		switch s.state {
		case SessionStateInit:
			s.pendingMailbox = append(s.pendingMailbox, in)
			return false
		case SessionStateUnknownMailbox:
			return s.handleSetMailbox(in)
		default:
			s.resolveErr(in, s.invalidStateError(in.kind))
			return false
		}
	case inputAuthenticate:
		switch s.state {
		case SessionStateInit, SessionStateUnknownMailbox:
			s.pendingAuth = append(s.pendingAuth, in)
			return false
		case SessionStateAuthenticating:
			return s.handleAuthenticate(in)
		default:
			s.resolveErr(in, s.invalidStateError(in.kind))
			return false
		}
	case inputEnd:
		s.resolveOK(in, Mailbox{})
		s.terminate(SessionEndRequested, ErrSessionComplete())
		return true
	default:
		s.resolveErr(in, s.invalidStateError(in.kind))
		return false
	}
}

func (s *Session) handleStart(in sessionInput) bool {
	vmCtx, err := s.contexts.GetByDomain(s.ctx, in.domain)
	if s.hungup() {
		// Lookup response raced the hangup; discard it.
		s.resolveErr(in, ErrChannelHungup())
		s.terminate(SessionEndHungup, ErrChannelHungup())
		return true
	}
	if err != nil {
		if IsNotFound(err) {
			notFound := ErrContextNotFound(in.domain)
			s.resolveErr(in, notFound)
			s.terminate(SessionEndFailed, notFound)
			return true
		}
		s.resolveErr(in, err)
		s.terminate(SessionEndFailed, err)
		return true
	}
	s.vmContext = &vmCtx
	s.setSnapshotDomain(vmCtx.Domain)

	if in.number == "" {
		s.resolveErr(in, ErrMailboxNotFound(in.number))
		s.enterUnknownMailbox()
		return s.state == SessionStateDone
	}

	mailbox, err := s.mailboxes.GetByNumber(s.ctx, in.number, vmCtx)
	if s.hungup() {
		s.resolveErr(in, ErrChannelHungup())
		s.terminate(SessionEndHungup, ErrChannelHungup())
		return true
	}
	if err != nil {
		if IsNotFound(err) {
			s.resolveErr(in, ErrMailboxNotFound(in.number))
			s.enterUnknownMailbox()
			return s.state == SessionStateDone
		}
		s.resolveErr(in, err)
		s.terminate(SessionEndFailed, err)
		return true
	}

	s.mailbox = &mailbox
	s.setSnapshotMailbox(mailbox.Number)
	s.resolveOK(in, mailbox)
	return s.enterAuthenticating()
}

func (s *Session) handleSetMailbox(in sessionInput) bool {
	if s.vmContext == nil {
		s.resolveErr(in, s.invalidStateError(in.kind))
		return false
	}
	if in.number == "" {
		s.resolveErr(in, ErrMailboxNotFound(in.number))
		return false
	}

	mailbox, err := s.mailboxes.GetByNumber(s.ctx, in.number, *s.vmContext)
	if s.hungup() {
		s.resolveErr(in, ErrChannelHungup())
		s.terminate(SessionEndHungup, ErrChannelHungup())
		return true
	}
	if err != nil {
		if IsNotFound(err) {
			// Caller may retry with a corrected number.
			s.resolveErr(in, ErrMailboxNotFound(in.number))
			return false
		}
		s.resolveErr(in, err)
		s.terminate(SessionEndFailed, err)
		return true
	}

	s.mailbox = &mailbox
	s.setSnapshotMailbox(mailbox.Number)
	s.resolveOK(in, mailbox)
	return s.enterAuthenticating()
}

func (s *Session) handleAuthenticate(in sessionInput) bool {
	s.stopPrompt()

	expected := ""
	if s.mailbox != nil {
		expected = s.mailbox.Password
	}
	if subtle.ConstantTimeCompare([]byte(in.password), []byte(expected)) == 1 {
		s.mu.Lock()
		s.authenticated = true
		s.snapshot.Authenticated = true
		s.mu.Unlock()
		s.resolveOK(in, Mailbox{})
		s.terminate(SessionEndAuthenticated, nil)
		return true
	}

	s.resolveErr(in, ErrInvalidPassword())
	s.startPrompt(s.promptSounds.InvalidPassword)
	return false
}

// enterUnknownMailbox transitions and drains setMailbox inputs buffered while
// the machine was still in init, in arrival order.
func (s *Session) enterUnknownMailbox() {
	s.transition(SessionStateUnknownMailbox)
	for len(s.pendingMailbox) > 0 {
		in := s.pendingMailbox[0]
		s.pendingMailbox = s.pendingMailbox[1:]
		if s.handleSetMailbox(in) || s.state != SessionStateUnknownMailbox {
			s.failBuffered(s.invalidStateError(inputSetMailbox))
			return
		}
	}
}

// enterAuthenticating transitions, honors skip-auth, starts the password
// prompt, and drains authenticate inputs buffered from earlier states in
// arrival order. Returns true when the session reached its terminal state.
func (s *Session) enterAuthenticating() bool {
	s.transition(SessionStateAuthenticating)

	if s.skipAuth {
		s.mu.Lock()
		s.authenticated = true
		s.snapshot.Authenticated = true
		s.mu.Unlock()
		for _, in := range s.pendingAuth {
			s.resolveOK(in, Mailbox{})
		}
		s.pendingAuth = nil
		s.terminate(SessionEndSkippedAuth, nil)
		return true
	}

	s.startPrompt(s.promptSounds.Password)

	for len(s.pendingAuth) > 0 {
		in := s.pendingAuth[0]
		s.pendingAuth = s.pendingAuth[1:]
		if s.handleAuthenticate(in) {
			return true
		}
	}
	return false
}

// startPrompt begins playback fire-and-forget. Prompt failures are not
// session failures; the password comparison proceeds independently of
// playback completion.
func (s *Session) startPrompt(soundSet string) {
	s.stopPrompt()
	if s.promptSvc == nil || strings.TrimSpace(soundSet) == "" {
		return
	}
	handle, err := s.promptSvc.Create(soundSet, s.channel)
	if err != nil {
		s.logFields("prompt create failed", map[string]any{
			"session_id": s.id,
			"sound_set":  soundSet,
			"error":      err.Error(),
		}, true)
		return
	}
	s.prompt = handle

	go func(ctx context.Context, prompt PromptHandle) {
		if _, err := prompt.Play(ctx); err != nil && ctx.Err() == nil {
			s.logFields("prompt playback failed", map[string]any{
				"session_id": s.id,
				"sound_set":  soundSet,
				"error":      err.Error(),
			}, true)
		}
	}(s.ctx, handle)
}

func (s *Session) stopPrompt() {
	if s.prompt == nil {
		return
	}
	s.prompt.Stop()
	s.prompt = nil
}

// terminate moves the session to done, fails anything still buffered,
// releases the hangup subscription and active prompt, and closes the done
// channel. terminalErr is nil for a successful authentication.
func (s *Session) terminate(reason SessionEndReason, terminalErr error) {
	s.transition(SessionStateDone)

	s.mu.Lock()
	s.endReason = reason
	s.snapshot.EndReason = reason
	if reason != SessionEndAuthenticated && reason != SessionEndSkippedAuth {
		s.terminalErr = terminalErr
	}
	s.mu.Unlock()

	buffered := terminalErr
	if reason == SessionEndHungup || buffered == nil {
		buffered = ErrChannelHungup()
		if reason != SessionEndHungup {
			buffered = ErrSessionComplete()
		}
	}
	s.failBuffered(buffered)

	s.stopPrompt()
	if s.hangupSub != nil {
		s.hangupSub.Cancel()
		s.hangupSub = nil
	}
	s.cancel()
	close(s.done)
}

func (s *Session) failBuffered(err error) {
	for _, in := range s.pendingMailbox {
		s.resolveErr(in, err)
	}
	s.pendingMailbox = nil
	for _, in := range s.pendingAuth {
		s.resolveErr(in, err)
	}
	s.pendingAuth = nil
}

func (s *Session) transition(next SessionState) {
	if s.state == next {
		return
	}
	if !sessionTransitionAllowed(s.state, next) {
		// Transition table violations are programming errors; surface them
		// in logs and force the terminal state rather than crash a call.
		s.logFields("invalid session transition", map[string]any{
			"session_id": s.id,
			"from":       string(s.state),
			"to":         string(next),
		}, true)
		next = SessionStateDone
	}
	s.state = next
	s.mu.Lock()
	s.snapshot.State = next
	s.mu.Unlock()
}

func (s *Session) setSnapshotDomain(domain string) {
	s.mu.Lock()
	s.snapshot.Domain = domain
	s.mu.Unlock()
}

func (s *Session) setSnapshotMailbox(number string) {
	s.mu.Lock()
	s.snapshot.MailboxNumber = number
	s.mu.Unlock()
}

func (s *Session) resolveOK(in sessionInput, mailbox Mailbox) {
	if in.reply == nil {
		return
	}
	in.reply <- sessionResult{mailbox: mailbox}
}

func (s *Session) resolveErr(in sessionInput, err error) {
	if in.reply == nil {
		return
	}
	in.reply <- sessionResult{err: err}
}

func (s *Session) invalidStateError(kind sessionInputKind) error {
	return goerrors.New(
		"core: "+kind.String()+" is not valid in session state "+string(s.state),
		goerrors.CategoryOperation,
	).WithTextCode(AuthErrorBadInput)
}

func (s *Session) logMisuse(kind sessionInputKind, reason SessionEndReason) {
	s.logFields("operation on terminal session", map[string]any{
		"session_id": s.id,
		"operation":  kind.String(),
		"end_reason": string(reason),
	}, true)
}

func (s *Session) logFields(message string, fields map[string]any, isError bool) {
	if s == nil || s.logger == nil {
		return
	}
	logger := s.logger
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	args := flattenFields(fields)
	if isError {
		logger.Error(message, args...)
		return
	}
	logger.Info(message, args...)
}

func normalizeMailboxNumber(number string) string {
	return strings.TrimSpace(number)
}

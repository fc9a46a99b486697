package core

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service wires the session state machine to its collaborators and exposes
// the session lifecycle operations consumed by the command/query surface.
// One Service serves many concurrent calls; every call gets an independent
// Session.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	contextStore    ContextStore
	mailboxStore    MailboxStore
	promptService   PromptService
	manager         *SessionManager
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	ContextStore    ContextStore
	MailboxStore    MailboxStore
	PromptService   PromptService
	SessionManager  *SessionManager
}

type InitSessionRequest struct {
	SessionID     string
	Domain        string
	MailboxNumber string
}

type SetMailboxRequest struct {
	SessionID     string
	MailboxNumber string
}

type AuthenticateRequest struct {
	SessionID string
	Password  string
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("vmauth", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("vmauth"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.contextStore == nil {
		builder.contextStore = NewMemoryContextStore()
	}
	if builder.mailboxStore == nil {
		builder.mailboxStore = NewMemoryMailboxStore()
	}
	if builder.manager == nil {
		builder.manager = NewSessionManager()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		contextStore:    builder.contextStore,
		mailboxStore:    builder.mailboxStore,
		promptService:   builder.promptService,
		manager:         builder.manager,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		ContextStore:    s.contextStore,
		MailboxStore:    s.mailboxStore,
		PromptService:   s.promptService,
		SessionManager:  s.manager,
	}
}

// CreateSession binds a new authentication session to a call leg. The session
// subscribes to the channel's hangup notification and starts its input loop;
// it is discarded automatically once it reaches the terminal state.
func (s *Service) CreateSession(ctx context.Context, channel Channel, input CreateSessionInput) (*Session, error) {
	if s == nil {
		return nil, goerrors.New("core: service is required", goerrors.CategoryInternal).
			WithTextCode(AuthErrorInternal)
	}
	startedAt := time.Now()

	if !input.SkipAuth && s.config.Session.SkipAuth {
		input.SkipAuth = true
	}

	session, err := newSession(
		newSessionID(),
		channel,
		input,
		s.contextStore,
		s.mailboxStore,
		s.promptService,
		s.config.Prompts.Auth,
		s.logger,
	)
	fields := map[string]any{"skip_auth": input.SkipAuth}
	if channel != nil {
		fields["channel_id"] = channel.ID()
	}
	if err != nil {
		s.observeOperation(ctx, startedAt, "session.create", err, fields)
		return nil, mapBuildError(s.errorMapper, err)
	}
	s.manager.add(session)
	fields["session_id"] = session.ID()
	s.observeOperation(ctx, startedAt, "session.create", nil, fields)
	return session, nil
}

// Session returns the live session with the given ID.
func (s *Service) Session(id string) (*Session, error) {
	if s == nil || s.manager == nil {
		return nil, ErrSessionNotFound(id)
	}
	session, ok := s.manager.Get(id)
	if !ok {
		return nil, ErrSessionNotFound(id)
	}
	return session, nil
}

// InitSession dispatches the start input to the addressed session.
func (s *Service) InitSession(ctx context.Context, req InitSessionRequest) (Mailbox, error) {
	startedAt := time.Now()
	fields := map[string]any{
		"session_id": req.SessionID,
		"domain":     req.Domain,
		"mailbox":    req.MailboxNumber,
	}
	session, err := s.Session(req.SessionID)
	if err != nil {
		s.observeOperation(ctx, startedAt, "session.init", err, fields)
		return Mailbox{}, err
	}
	mailbox, err := session.Init(ctx, req.Domain, req.MailboxNumber)
	s.observeOperation(ctx, startedAt, "session.init", err, fields)
	return mailbox, err
}

// SetSessionMailbox dispatches a corrected mailbox number to the addressed
// session.
func (s *Service) SetSessionMailbox(ctx context.Context, req SetMailboxRequest) (Mailbox, error) {
	startedAt := time.Now()
	fields := map[string]any{
		"session_id": req.SessionID,
		"mailbox":    req.MailboxNumber,
	}
	session, err := s.Session(req.SessionID)
	if err != nil {
		s.observeOperation(ctx, startedAt, "session.set_mailbox", err, fields)
		return Mailbox{}, err
	}
	mailbox, err := session.SetMailbox(ctx, req.MailboxNumber)
	s.observeOperation(ctx, startedAt, "session.set_mailbox", err, fields)
	return mailbox, err
}

// AuthenticateSession dispatches a password attempt to the addressed session.
func (s *Service) AuthenticateSession(ctx context.Context, req AuthenticateRequest) error {
	startedAt := time.Now()
	fields := map[string]any{"session_id": req.SessionID}
	session, err := s.Session(req.SessionID)
	if err != nil {
		s.observeOperation(ctx, startedAt, "session.authenticate", err, fields)
		return err
	}
	err = session.Authenticate(ctx, req.Password)
	s.observeOperation(ctx, startedAt, "session.authenticate", err, fields)
	return err
}

// EndSession terminates the addressed session. Ending a session that already
// finished is a no-op.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	startedAt := time.Now()
	fields := map[string]any{"session_id": sessionID}
	session, err := s.Session(sessionID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		s.observeOperation(ctx, startedAt, "session.end", err, fields)
		return err
	}
	err = session.End(ctx)
	s.observeOperation(ctx, startedAt, "session.end", err, fields)
	return err
}

// GetSession returns a read-only view of the addressed session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (SessionSnapshot, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// ListSessions returns a read-only view of every live session.
func (s *Service) ListSessions(context.Context) ([]SessionSnapshot, error) {
	if s == nil || s.manager == nil {
		return nil, nil
	}
	return s.manager.Snapshots(), nil
}

// GetMailbox resolves a domain and mailbox number directly against the
// stores, outside any session.
func (s *Service) GetMailbox(ctx context.Context, domain, number string) (Mailbox, error) {
	if s == nil {
		return Mailbox{}, goerrors.New("core: service is required", goerrors.CategoryInternal).
			WithTextCode(AuthErrorInternal)
	}
	domain = strings.TrimSpace(domain)
	number = strings.TrimSpace(number)

	vmCtx, err := s.contextStore.GetByDomain(ctx, domain)
	if err != nil {
		if IsNotFound(err) {
			return Mailbox{}, ErrContextNotFound(domain)
		}
		return Mailbox{}, err
	}
	mailbox, err := s.mailboxStore.GetByNumber(ctx, number, vmCtx)
	if err != nil {
		if IsNotFound(err) {
			return Mailbox{}, ErrMailboxNotFound(number)
		}
		return Mailbox{}, err
	}
	return mailbox, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

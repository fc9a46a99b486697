package vmauth

import "github.com/goliatone/go-vmauth/core"

type Config = core.Config

type PromptsConfig = core.PromptsConfig

type AuthPromptsConfig = core.AuthPromptsConfig

type SessionConfig = core.SessionConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Session = core.Session

type SessionManager = core.SessionManager

type SessionSnapshot = core.SessionSnapshot

type SessionState = core.SessionState

type CreateSessionInput = core.CreateSessionInput

type Context = core.Context

type Mailbox = core.Mailbox

type ContextStore = core.ContextStore

type MailboxStore = core.MailboxStore

type PromptService = core.PromptService

type PromptHandle = core.PromptHandle

type Channel = core.Channel

type HangupSubscription = core.HangupSubscription

type InitSessionRequest = core.InitSessionRequest

type SetMailboxRequest = core.SetMailboxRequest

type AuthenticateRequest = core.AuthenticateRequest

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithContextStore    = core.WithContextStore
	WithMailboxStore    = core.WithMailboxStore
	WithPromptService   = core.WithPromptService
	WithSessionManager  = core.WithSessionManager
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}

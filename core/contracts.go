package core

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// ContextStore resolves voicemail domains to account contexts. A domain that
// does not resolve returns a CategoryNotFound rich error; any other error is
// a backend failure and is propagated to the caller unchanged.
type ContextStore interface {
	GetByDomain(ctx context.Context, domain string) (Context, error)
}

// MailboxStore resolves mailbox numbers within a previously resolved context.
// Not-found and backend failures follow the ContextStore error contract.
type MailboxStore interface {
	GetByNumber(ctx context.Context, number string, vmContext Context) (Mailbox, error)
}

// StoreProvider exposes the persistent stores a service runs against.
type StoreProvider interface {
	ContextStore() ContextStore
	MailboxStore() MailboxStore
}

// PromptService creates playable prompts bound to a channel. The sound set
// names what to play; rendering belongs to the telephony layer.
type PromptService interface {
	Create(soundSet string, channel Channel) (PromptHandle, error)
}

// PromptHandle controls a single prompt playback.
type PromptHandle interface {
	// Play blocks until playback finishes or ctx is canceled. The boolean
	// reports whether the prompt played to completion.
	Play(ctx context.Context) (bool, error)
	// Stop halts playback. Idempotent, safe with no active playback.
	Stop()
}

// Channel is the telephony leg a session is bound to. The hangup
// subscription is single-fire: the callback runs at most once, when the call
// ends.
type Channel interface {
	ID() string
	SubscribeHangup(fn func()) (HangupSubscription, error)
}

// HangupSubscription releases a hangup registration. Cancel is idempotent.
type HangupSubscription interface {
	Cancel()
}

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

// ErrorMapper normalizes arbitrary errors into the package error envelope.
type ErrorMapper func(err error) *goerrors.Error

// ConfigProvider loads the resolved application configuration, layered over
// the supplied defaults.
type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

// RawConfigLoader supplies raw configuration values before typed building.
type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// OptionsResolver merges defaults, loaded, and runtime configuration layers.
type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

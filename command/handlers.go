package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-vmauth/core"
)

// MutatingService is the session-mutating surface commands delegate to.
type MutatingService interface {
	InitSession(ctx context.Context, req core.InitSessionRequest) (core.Mailbox, error)
	SetSessionMailbox(ctx context.Context, req core.SetMailboxRequest) (core.Mailbox, error)
	AuthenticateSession(ctx context.Context, req core.AuthenticateRequest) error
	EndSession(ctx context.Context, sessionID string) error
}

type InitSessionCommand struct {
	service MutatingService
}

func NewInitSessionCommand(service MutatingService) *InitSessionCommand {
	return &InitSessionCommand{service: service}
}

func (c *InitSessionCommand) Execute(ctx context.Context, msg InitSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: init session service is required")
	}
	out, err := c.service.InitSession(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetMailboxCommand struct {
	service MutatingService
}

func NewSetMailboxCommand(service MutatingService) *SetMailboxCommand {
	return &SetMailboxCommand{service: service}
}

func (c *SetMailboxCommand) Execute(ctx context.Context, msg SetMailboxMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: set mailbox service is required")
	}
	out, err := c.service.SetSessionMailbox(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type AuthenticateCommand struct {
	service MutatingService
}

func NewAuthenticateCommand(service MutatingService) *AuthenticateCommand {
	return &AuthenticateCommand{service: service}
}

func (c *AuthenticateCommand) Execute(ctx context.Context, msg AuthenticateMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authenticate service is required")
	}
	return c.service.AuthenticateSession(ctx, msg.Request)
}

type EndSessionCommand struct {
	service MutatingService
}

func NewEndSessionCommand(service MutatingService) *EndSessionCommand {
	return &EndSessionCommand{service: service}
}

func (c *EndSessionCommand) Execute(ctx context.Context, msg EndSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: end session service is required")
	}
	return c.service.EndSession(ctx, msg.SessionID)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}

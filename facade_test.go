package vmauth

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-vmauth/command"
	"github.com/goliatone/go-vmauth/core"
	"github.com/goliatone/go-vmauth/query"
)

type facadeChannel struct {
	id string
}

func (c facadeChannel) ID() string { return c.id }

func (c facadeChannel) SubscribeHangup(func()) (core.HangupSubscription, error) {
	return facadeHangupSubscription{}, nil
}

type facadeHangupSubscription struct{}

func (facadeHangupSubscription) Cancel() {}

func newFacadeService(t *testing.T) *core.Service {
	t.Helper()

	vmCtx := core.Context{ID: "ctx_1", Domain: "mydomain.com"}
	mailbox := core.Mailbox{
		ID:       "mbx_1",
		Number:   "1234",
		Password: "mypassword",
		Context:  vmCtx,
	}

	service, err := core.NewService(core.Config{},
		core.WithContextStore(core.NewMemoryContextStore(vmCtx)),
		core.WithMailboxStore(core.NewMemoryMailboxStore(mailbox)),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestFacade_WiresCommandsAndQueries(t *testing.T) {
	service := newFacadeService(t)
	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.InitSession == nil || commands.SetMailbox == nil ||
		commands.Authenticate == nil || commands.EndSession == nil {
		t.Fatalf("expected all command handlers wired")
	}
	queries := facade.Queries()
	if queries.GetSession == nil || queries.ListSessions == nil || queries.GetMailbox == nil {
		t.Fatalf("expected all query handlers wired")
	}
	if facade.Service() == nil {
		t.Fatalf("expected facade to expose its service")
	}
}

func TestFacade_EndToEndAuthentication(t *testing.T) {
	ctx := context.Background()
	service := newFacadeService(t)
	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	session, err := service.CreateSession(ctx, facadeChannel{id: "chan_fac_1"}, core.CreateSessionInput{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	collector := gocmd.NewResult[core.Mailbox]()
	initCtx := gocmd.ContextWithResult(ctx, collector)
	if err := facade.Commands().InitSession.Execute(initCtx, command.InitSessionMessage{
		Request: core.InitSessionRequest{
			SessionID:     session.ID(),
			Domain:        "mydomain.com",
			MailboxNumber: "1234",
		},
	}); err != nil {
		t.Fatalf("init session command: %v", err)
	}
	mailbox, ok := collector.Load()
	if !ok || mailbox.Number != "1234" {
		t.Fatalf("expected resolved mailbox result, got %#v (%v)", mailbox, ok)
	}

	snapshot, err := facade.Queries().GetSession.Query(ctx, query.GetSessionMessage{SessionID: session.ID()})
	if err != nil {
		t.Fatalf("get session query: %v", err)
	}
	if snapshot.State != core.SessionStateAuthenticating {
		t.Fatalf("expected authenticating state, got %q", snapshot.State)
	}

	if err := facade.Commands().Authenticate.Execute(ctx, command.AuthenticateMessage{
		Request: core.AuthenticateRequest{
			SessionID: session.ID(),
			Password:  "wrong",
		},
	}); !core.IsInvalidPassword(err) {
		t.Fatalf("expected invalid password, got %v", err)
	}
	if err := facade.Commands().Authenticate.Execute(ctx, command.AuthenticateMessage{
		Request: core.AuthenticateRequest{
			SessionID: session.ID(),
			Password:  "mypassword",
		},
	}); err != nil {
		t.Fatalf("authenticate command: %v", err)
	}

	select {
	case <-session.Done():
	default:
		t.Fatalf("expected session to reach terminal state")
	}
}

func TestFacade_GetMailboxQuery(t *testing.T) {
	service := newFacadeService(t)
	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	mailbox, err := facade.Queries().GetMailbox.Query(context.Background(), query.GetMailboxMessage{
		Domain:        "mydomain.com",
		MailboxNumber: "1234",
	})
	if err != nil {
		t.Fatalf("get mailbox query: %v", err)
	}
	if mailbox.Number != "1234" {
		t.Fatalf("unexpected mailbox %+v", mailbox)
	}

	if _, err := facade.Queries().GetMailbox.Query(context.Background(), query.GetMailboxMessage{
		Domain:        "nowhere.example",
		MailboxNumber: "1234",
	}); !core.IsContextNotFound(err) {
		t.Fatalf("expected context not found, got %v", err)
	}
}

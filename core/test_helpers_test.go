package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFieldMap(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFieldMap(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFieldMap(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func (l *captureLogger) hasMessage(msg string) bool {
	for _, record := range l.snapshot() {
		if record.msg == msg {
			return true
		}
	}
	return false
}

func cloneFieldMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type recordedMetric struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []recordedMetric
	histograms []recordedMetric
}

func (r *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, recordedMetric{name: name, value: float64(value), tags: cloneTags(tags)})
}

func (r *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms = append(r.histograms, recordedMetric{name: name, value: value, tags: cloneTags(tags)})
}

func (r *captureMetricsRecorder) counterNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.counters))
	for _, metric := range r.counters {
		names = append(names, metric.name)
	}
	return names
}

type fakeHangupSubscription struct {
	cancels int
	mu      sync.Mutex
}

func (s *fakeHangupSubscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
}

func (s *fakeHangupSubscription) cancelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

type fakeChannel struct {
	id string

	mu        sync.Mutex
	callbacks []func()
	fired     bool
	subs      []*fakeHangupSubscription
	subErr    error
}

func newFakeChannel(id string) *fakeChannel {
	return &fakeChannel{id: id}
}

func (c *fakeChannel) ID() string {
	return c.id
}

func (c *fakeChannel) SubscribeHangup(fn func()) (HangupSubscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subErr != nil {
		return nil, c.subErr
	}
	c.callbacks = append(c.callbacks, fn)
	sub := &fakeHangupSubscription{}
	c.subs = append(c.subs, sub)
	return sub, nil
}

// Hangup fires every registered callback once, like a call leg dropping.
func (c *fakeChannel) Hangup() {
	c.mu.Lock()
	if c.fired {
		c.mu.Unlock()
		return
	}
	c.fired = true
	callbacks := make([]func(), len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

type fakePromptHandle struct {
	soundSet string

	mu       sync.Mutex
	plays    int
	stops    int
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newFakePromptHandle(soundSet string) *fakePromptHandle {
	return &fakePromptHandle{soundSet: soundSet, stopCh: make(chan struct{})}
}

func (h *fakePromptHandle) Play(ctx context.Context) (bool, error) {
	h.mu.Lock()
	h.plays++
	h.mu.Unlock()
	select {
	case <-ctx.Done():
		return false, nil
	case <-h.stopCh:
		return false, nil
	}
}

func (h *fakePromptHandle) Stop() {
	h.mu.Lock()
	h.stops++
	h.mu.Unlock()
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *fakePromptHandle) stopped() bool {
	select {
	case <-h.stopCh:
		return true
	default:
		return false
	}
}

type fakePromptService struct {
	mu        sync.Mutex
	created   []string
	handles   []*fakePromptHandle
	createErr error
}

func (p *fakePromptService) Create(soundSet string, _ Channel) (PromptHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	handle := newFakePromptHandle(soundSet)
	p.created = append(p.created, soundSet)
	p.handles = append(p.handles, handle)
	return handle, nil
}

func (p *fakePromptService) createdSoundSets() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.created))
	copy(out, p.created)
	return out
}

func (p *fakePromptService) handleFor(soundSet string) *fakePromptHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, handle := range p.handles {
		if handle.soundSet == soundSet {
			return handle
		}
	}
	return nil
}

// gatedContextStore holds every GetByDomain open until released, so tests can
// race other inputs against an in-flight lookup.
type gatedContextStore struct {
	inner   ContextStore
	entered chan struct{}
	release chan struct{}
}

func newGatedContextStore(inner ContextStore) *gatedContextStore {
	return &gatedContextStore{
		inner:   inner,
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (s *gatedContextStore) GetByDomain(ctx context.Context, domain string) (Context, error) {
	s.entered <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
		return Context{}, ctx.Err()
	}
	return s.inner.GetByDomain(ctx, domain)
}

type failingContextStore struct {
	err error
}

func (s failingContextStore) GetByDomain(context.Context, string) (Context, error) {
	return Context{}, s.err
}

type failingMailboxStore struct {
	err error
}

func (s failingMailboxStore) GetByNumber(context.Context, string, Context) (Mailbox, error) {
	return Mailbox{}, s.err
}

func seededStores() (*MemoryContextStore, *MemoryMailboxStore, Context, Mailbox) {
	vmCtx := Context{
		ID:     "ctx_1",
		Domain: "mydomain.com",
		Name:   "My Domain",
	}
	mailbox := Mailbox{
		ID:       "mbx_1",
		Number:   "1234",
		Password: "mypassword",
		Name:     "Front Desk",
		Context:  vmCtx,
	}
	return NewMemoryContextStore(vmCtx), NewMemoryMailboxStore(mailbox), vmCtx, mailbox
}

type testServiceEnv struct {
	service *Service
	logger  *captureLogger
	metrics *captureMetricsRecorder
	prompts *fakePromptService
	vmCtx   Context
	mailbox Mailbox
}

func newTestService(t *testing.T, runtime Config, options ...Option) *testServiceEnv {
	t.Helper()

	contexts, mailboxes, vmCtx, mailbox := seededStores()
	logger := newCaptureLogger()
	metrics := &captureMetricsRecorder{}
	prompts := &fakePromptService{}

	base := []Option{
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
		WithMetricsRecorder(metrics),
		WithContextStore(contexts),
		WithMailboxStore(mailboxes),
		WithPromptService(prompts),
	}
	service, err := NewService(runtime, append(base, options...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testServiceEnv{
		service: service,
		logger:  logger,
		metrics: metrics,
		prompts: prompts,
		vmCtx:   vmCtx,
		mailbox: mailbox,
	}
}

func waitDone(t *testing.T, session *Session) {
	t.Helper()
	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not reach terminal state")
	}
}

func waitFor(t *testing.T, what string, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if strings.Contains(value, target) {
			return true
		}
	}
	return false
}

package email

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Scenario enumerates the supported mock behaviours. The default scenario is
// success unless overridden via headers or options.
type Scenario string

const (
	ScenarioSuccess     Scenario = "success"
	ScenarioRejected    Scenario = "rejected"
	ScenarioServerError Scenario = "server_error"
	ScenarioTransport   Scenario = "transport"
	ScenarioTimeout     Scenario = "timeout"

	// HeaderScenario selects a Scenario for a single message.
	HeaderScenario = "X-Mock-Provider-Scenario"
	headerLatency  = "X-Mock-Provider-Latency"
)

// DefaultSentHistory is how many accepted messages the mock keeps for Sent.
const DefaultSentHistory = 100

// ErrMockTransport is returned by the transport scenario.
var ErrMockTransport = errors.New("mock: connection reset by peer")

// Option customizes the behaviour of the mock provider at construction time.
type Option func(*MockProvider)

// WithLatencyRange overrides the default latency range used by the mock
// provider when simulating work. Negative values are clamped to zero and if
// max < min it is coerced to min to keep behaviour deterministic.
func WithLatencyRange(min, max time.Duration) Option {
	return func(p *MockProvider) {
		if min < 0 {
			min = 0
		}
		if max < 0 {
			max = 0
		}
		if max < min {
			max = min
		}
		p.minLatency = min
		p.maxLatency = max
	}
}

// WithDefaultScenario configures the default behaviour when a message does not
// specify an explicit scenario via headers.
func WithDefaultScenario(s Scenario) Option {
	return func(p *MockProvider) {
		p.defaultScenario = s
	}
}

// WithRecipientScenario pins the behaviour for every message sent to addr.
// Header overrides still take precedence.
func WithRecipientScenario(addr string, s Scenario) Option {
	return func(p *MockProvider) {
		p.recipients[strings.ToLower(strings.TrimSpace(addr))] = s
	}
}

// WithRandomSeed swaps the RNG seed used when generating provider identifiers.
func WithRandomSeed(seed int64) Option {
	return func(p *MockProvider) {
		p.rnd = rand.New(rand.NewSource(seed)) // #nosec G404 -- deterministic seed for tests.
	}
}

// WithSentHistory keeps at most n accepted messages, dropping the oldest.
// A value of zero or less disables recording.
func WithSentHistory(n int) Option {
	return func(p *MockProvider) {
		p.history = n
	}
}

// WithClock overrides the clock used for timestamps, useful for deterministic
// unit tests.
func WithClock(now func() time.Time) Option {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// MockProvider implements a deterministic email provider suitable for local
// development and automated testing. Behaviour can be controlled via options
// and per-message headers without making real network calls.
type MockProvider struct {
	logger          zerolog.Logger
	minLatency      time.Duration
	maxLatency      time.Duration
	defaultScenario Scenario
	recipients      map[string]Scenario
	now             func() time.Time
	history         int

	mu   sync.Mutex
	rnd  *rand.Rand
	sent []Message
}

// NewMockProvider constructs a mock provider instance using sensible
// defaults. By default it emits successes with a latency between 25ms and 75ms.
func NewMockProvider(logger zerolog.Logger, opts ...Option) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &MockProvider{
		logger:          logger,
		minLatency:      25 * time.Millisecond,
		maxLatency:      75 * time.Millisecond,
		defaultScenario: ScenarioSuccess,
		recipients:      make(map[string]Scenario),
		now:             time.Now,
		history:         DefaultSentHistory,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Send simulates delivering msg. Accepted messages are recorded and can be
// inspected with Sent.
func (p *MockProvider) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	if err := validateMessage("mock provider", msg); err != nil {
		return nil, err
	}

	latency := p.sampleLatency(msg)
	if latency > 0 {
		if err := p.sleep(ctx, latency); err != nil {
			return nil, err
		}
	}

	scenario := p.resolveScenario(msg)
	p.logger.Debug().
		Str("provider", "mock").
		Str("scenario", string(scenario)).
		Msg("mock email provider invoked")

	switch scenario {
	case ScenarioRejected:
		return nil, &ProviderError{
			StatusCode: 400,
			Detail:     "The from address does not match a verified Sender Identity.",
			Body:       `{"errors":[{"message":"The from address does not match a verified Sender Identity."}]}`,
		}
	case ScenarioServerError:
		return nil, &ProviderError{
			StatusCode: 500,
			Detail:     "Internal server error",
			Body:       `{"errors":[{"message":"Internal server error"}]}`,
		}
	case ScenarioTransport:
		return nil, ErrMockTransport
	case ScenarioTimeout:
		if err := p.sleep(ctx, p.maxLatency+p.minLatency); err != nil {
			return nil, err
		}
		return nil, context.DeadlineExceeded
	default:
		return p.accept(msg), nil
	}
}

// Sent returns a copy of the most recently accepted messages, oldest first.
func (p *MockProvider) Sent() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.sent))
	copy(out, p.sent)
	return out
}

func (p *MockProvider) accept(msg *Message) *Receipt {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.history > 0 {
		if len(p.sent) >= p.history {
			copy(p.sent, p.sent[len(p.sent)-p.history+1:])
			p.sent = p.sent[:p.history-1]
		}
		p.sent = append(p.sent, *msg)
	}
	return &Receipt{
		ID:        p.nextIDLocked(),
		Code:      202,
		Body:      "mock: message queued",
		Timestamp: p.now(),
	}
}

func (p *MockProvider) resolveScenario(msg *Message) Scenario {
	if value, ok := pickHeader(msg.Headers, HeaderScenario); ok && value != "" {
		return parseScenario(value)
	}
	if s, ok := p.recipients[strings.ToLower(strings.TrimSpace(msg.To))]; ok {
		return s
	}
	return p.defaultScenario
}

// parseScenario maps a header value to a Scenario, falling back to success.
func parseScenario(value string) Scenario {
	switch s := Scenario(strings.ToLower(strings.TrimSpace(value))); s {
	case ScenarioRejected, ScenarioServerError, ScenarioTransport, ScenarioTimeout:
		return s
	default:
		return ScenarioSuccess
	}
}

func (p *MockProvider) sampleLatency(msg *Message) time.Duration {
	if value, ok := pickHeader(msg.Headers, headerLatency); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d >= 0 {
			return d
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	min := p.minLatency
	max := p.maxLatency
	if max <= min {
		return min
	}

	delta := max - min
	return min + time.Duration(p.rnd.Int63n(int64(delta)+1))
}

func (p *MockProvider) nextIDLocked() string {
	id, err := uuid.NewRandomFromReader(p.rnd)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (p *MockProvider) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func pickHeader(headers map[string]string, key string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

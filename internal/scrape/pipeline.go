// Package scrape implements the resilient fetch pipeline used to retrieve
// flight-status pages from a target that actively resists automation:
// session warm-up, browser profile rotation, challenge detection, and
// sequential backoff retries modelled as an explicit state machine.
package scrape

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// state is the retry loop state.
type state int

const (
	stateIdle state = iota
	stateAttempting
	stateBackoff
	stateSucceeded
	stateExhausted
)

// Config tunes the pipeline. Zero values take the defaults below.
type Config struct {
	// MaxAttempts bounds the retry loop, clamped to [2, 5].
	MaxAttempts int
	// BackoffBase is the first backoff; each retry doubles it.
	BackoffBase time.Duration
	// BackoffJitter is the width of the random jitter window added to
	// every backoff. Keep it below BackoffBase so waits stay strictly
	// increasing.
	BackoffJitter time.Duration
	// WarmupURLs are fetched in order before the target to accumulate
	// cookies and a plausible referrer chain. Failures are non-fatal.
	WarmupURLs []string
	// AlternateURLs are secondary data endpoints tried once each after
	// the retry loop exhausts.
	AlternateURLs []string
}

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
	defaultJitter      = 250 * time.Millisecond
)

// Result is the terminal outcome of a Fetch.
type Result struct {
	Outcome  Outcome
	Status   int
	Body     string
	Session  Session
	Attempts int
	// Challenges counts how many attempts hit a bot-check page, so callers
	// can tell an all-challenge run from a mixed one.
	Challenges int
	// FromAlternate is set when the body came from a fallback endpoint
	// rather than the primary target.
	FromAlternate bool
}

// Pipeline fetches pages with retries. All state is per-call; a Pipeline
// is safe for concurrent use.
type Pipeline struct {
	client *http.Client
	cfg    Config
	log    *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(window time.Duration) time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Pipeline) { p.client = hc }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithSleepFunc replaces the backoff sleeper, for tests.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) { p.sleep = fn }
}

// New creates a pipeline with the given config.
func New(cfg Config, opts ...Option) *Pipeline {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.MaxAttempts < 2 {
		cfg.MaxAttempts = 2
	}
	if cfg.MaxAttempts > 5 {
		cfg.MaxAttempts = 5
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffJitter == 0 {
		cfg.BackoffJitter = defaultJitter
	}

	p := &Pipeline{
		client: &http.Client{Timeout: 20 * time.Second},
		cfg:    cfg,
		log:    slog.Default(),
		sleep:  sleepCtx,
		jitter: func(window time.Duration) time.Duration {
			return time.Duration(rand.Int63n(int64(window)))
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fetch retrieves the target URL. key selects the browser profile
// deterministically, so identical queries present the same identity; the
// profile rotates after each failed attempt. The returned Result always
// carries the last classification; err is non-nil only for context
// cancellation.
func (p *Pipeline) Fetch(ctx context.Context, target, key string, sess Session) (*Result, error) {
	var (
		st         = stateIdle
		rotation   = 0
		attempts   = 0
		challenges = 0
		last       Result
	)

	for {
		switch st {
		case stateIdle:
			p.warmUp(ctx, profileFor(key, rotation), &sess)
			st = stateAttempting

		case stateAttempting:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			profile := profileFor(key, rotation)
			attempts++
			last = p.attempt(ctx, target, profile, &sess)
			if last.Outcome == OutcomeChallenge {
				challenges++
			}
			last.Attempts = attempts
			last.Challenges = challenges

			p.log.Debug("fetch attempt",
				"attempt", attempts,
				"profile", profile.Name,
				"outcome", last.Outcome.String(),
				"status", last.Status)

			switch {
			case last.Outcome == OutcomeSuccess:
				st = stateSucceeded
			case !retryEligible(last.Outcome, last.Status):
				// e.g. a clean 404: surface it as-is, no retry.
				return &last, nil
			case attempts >= p.cfg.MaxAttempts:
				st = stateExhausted
			default:
				rotation++
				st = stateBackoff
			}

		case stateBackoff:
			d := p.backoffFor(attempts)
			p.log.Debug("backing off", "attempt", attempts, "wait", d)
			if err := p.sleep(ctx, d); err != nil {
				return nil, err
			}
			st = stateAttempting

		case stateSucceeded:
			return &last, nil

		case stateExhausted:
			if alt := p.tryAlternates(ctx, key, &sess); alt != nil {
				alt.Attempts = attempts
				alt.Challenges = challenges
				return alt, nil
			}
			return &last, nil
		}
	}
}

// backoffFor returns the wait before retry n+1: base doubled per attempt
// plus random jitter.
func (p *Pipeline) backoffFor(attempt int) time.Duration {
	d := p.cfg.BackoffBase << (attempt - 1)
	return d + p.jitter(p.cfg.BackoffJitter)
}

// attempt performs a single request and classifies it.
func (p *Pipeline) attempt(ctx context.Context, target string, profile Profile, sess *Session) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Outcome: OutcomeNetworkError, Session: *sess}
	}
	profile.apply(req)
	sess.apply(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{Outcome: OutcomeNetworkError, Session: *sess}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Result{Outcome: OutcomeNetworkError, Status: resp.StatusCode, Session: *sess}
	}

	sess.absorb(resp, target)
	return Result{
		Outcome: classify(resp.StatusCode, string(body)),
		Status:  resp.StatusCode,
		Body:    string(body),
		Session: *sess,
	}
}

// warmUp walks the configured page chain to collect cookies and build a
// referrer trail. Any failure is logged and skipped; the pipeline proceeds
// with whatever session state it has.
func (p *Pipeline) warmUp(ctx context.Context, profile Profile, sess *Session) {
	for _, u := range p.cfg.WarmupURLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			continue
		}
		profile.apply(req)
		sess.apply(req)

		resp, err := p.client.Do(req)
		if err != nil {
			p.log.Debug("warm-up step failed", "url", u, "error", err)
			continue
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
		sess.absorb(resp, u)
	}
}

// tryAlternates hits each secondary endpoint once, returning the first
// success.
func (p *Pipeline) tryAlternates(ctx context.Context, key string, sess *Session) *Result {
	for _, u := range p.cfg.AlternateURLs {
		if ctx.Err() != nil {
			return nil
		}
		res := p.attempt(ctx, u, profileFor(key, 0), sess)
		if res.Outcome == OutcomeSuccess {
			p.log.Info("alternate endpoint succeeded", "url", u)
			res.FromAlternate = true
			return &res
		}
		p.log.Debug("alternate endpoint failed", "url", u, "outcome", res.Outcome.String())
	}
	return nil
}

package monitoring

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-analyzer-go/internal/extractor"
	"call-analyzer-go/internal/logger"
)

// Pinger is the part of an analyzer the probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
	Provider() string
}

// Status holds the outcome of the last reachability probe.
type Status struct {
	reachable atomic.Bool
	checked   atomic.Bool
	lastError atomic.Value
}

func (s *Status) Reachable() bool { return s.reachable.Load() }

func (s *Status) Checked() bool { return s.checked.Load() }

// LastError is the failure kind of the last probe, empty when it succeeded.
func (s *Status) LastError() string {
	v, _ := s.lastError.Load().(string)
	return v
}

func (s *Status) set(err error) {
	s.checked.Store(true)
	s.reachable.Store(err == nil)
	s.lastError.Store(extractor.KindLabel(err))
}

// Probe pings the AI provider with exponential backoff until it answers, a
// credential error comes back, or maxElapsed passes. It only informs the
// health endpoint; transcripts are never retried.
func Probe(ctx context.Context, p Pinger, maxElapsed time.Duration, status *Status) error {
	log := logger.New().WithField("component", "ai-probe").WithField("provider", p.Provider())

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = maxElapsed

	op := func() error {
		err := p.Ping(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, extractor.ErrUnauthorized) {
			return backoff.Permanent(err)
		}
		log.WithError(err).Debug("AI provider not reachable yet")
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(bo, ctx))
	status.set(err)
	if err != nil {
		log.WithError(err).WithField("kind", extractor.KindLabel(err)).Warn("AI provider unreachable, transcripts will use fallback until it recovers")
		return err
	}
	log.Info("AI provider reachable")
	return nil
}

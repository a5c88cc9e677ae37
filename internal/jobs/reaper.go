package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultReapSchedule runs the stale-attempt sweep once a minute.
const DefaultReapSchedule = "@every 1m"

const reapTimeout = time.Minute

// StaleReaper abandons attempts that stayed in progress for longer than maxAge.
type StaleReaper interface {
	ReapStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// Reaper periodically releases attempts stranded by a crash between reservation
// and finalization so the student can submit again.
type Reaper struct {
	cron     *cron.Cron
	target   StaleReaper
	maxAge   time.Duration
	schedule string
}

func NewReaper(target StaleReaper, schedule string, maxAge time.Duration) *Reaper {
	if schedule == "" {
		schedule = DefaultReapSchedule
	}
	return &Reaper{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		target:   target,
		maxAge:   maxAge,
		schedule: schedule,
	}
}

// Start registers the sweep and starts the scheduler in the background.
func (r *Reaper) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.RunOnce); err != nil {
		return fmt.Errorf("schedule stale-attempt reaper %q: %w", r.schedule, err)
	}
	r.cron.Start()
	log.Info().Str("schedule", r.schedule).Dur("stale_after", r.maxAge).Msg("stale-attempt reaper started")
	return nil
}

// RunOnce performs a single sweep.
func (r *Reaper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
	defer cancel()

	n, err := r.target.ReapStale(ctx, r.maxAge)
	if err != nil {
		log.Error().Err(err).Msg("stale-attempt reaper failed")
		return
	}
	if n > 0 {
		log.Info().Int("attempts", n).Msg("abandoned stale attempts")
	}
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
}

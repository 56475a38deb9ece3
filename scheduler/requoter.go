package scheduler

import (
	"fmt"
	"log"

	"costbook/models"

	"github.com/robfig/cron/v3"
)

// RequoteSource lists the requests a re-quote round should submit
type RequoteSource func() []models.ResolveRequest

// Submitter accepts requests without blocking
type Submitter interface {
	Submit(req models.ResolveRequest)
}

// Requoter periodically re-resolves every linked item so price drift shows
// up in the quote history
type Requoter struct {
	cron     *cron.Cron
	schedule string
	source   RequoteSource
	queue    Submitter
}

// NewRequoter creates a requoter. schedule uses the six-field cron format
// with seconds, e.g. "0 0 */12 * * *".
func NewRequoter(schedule string, source RequoteSource, queue Submitter) *Requoter {
	return &Requoter{
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		source:   source,
		queue:    queue,
	}
}

// Start schedules re-quote rounds
func (r *Requoter) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.RequoteAll); err != nil {
		return fmt.Errorf("scheduling re-quotes %q: %w", r.schedule, err)
	}
	r.cron.Start()
	log.Printf("⏰ Re-quotes scheduled: %s", r.schedule)
	return nil
}

// Stop stops scheduling. A round already submitted stays queued.
func (r *Requoter) Stop() {
	if r.cron != nil {
		ctx := r.cron.Stop()
		<-ctx.Done()
	}
}

// RequoteAll submits one re-quote round
func (r *Requoter) RequoteAll() {
	reqs := r.source()
	if len(reqs) == 0 {
		log.Println("No linked items to re-quote")
		return
	}

	log.Printf("🔄 Re-quoting %d items", len(reqs))
	for _, req := range reqs {
		req.Kind = models.RequestRequote
		r.queue.Submit(req)
	}
}

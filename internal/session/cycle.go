package session

import (
	"context"
	"log"
	"time"
)

// RunCycle performs one full pass: submit finished results, report
// progress on everything queued, refill the queue, and re-report so the
// server immediately sees completion dates for freshly fetched work.
func (c *Controller) RunCycle() {
	if sent := c.SubmitResults(); sent > 0 {
		log.Printf("Reported %d result(s)", sent)
	}
	timeLeft := c.ReportProgressAll()
	if got := c.RefillQueue(timeLeft); got > 0 {
		c.ReportProgressAll()
	}
}

// Run executes cycles until ctx is cancelled. A zero interval means run a
// single cycle and return; the caller cancels ctx on SIGINT/SIGTERM for a
// clean mid-sleep exit.
func (c *Controller) Run(ctx context.Context) error {
	interval := c.Config.Interval()
	for {
		c.RunCycle()
		if interval == 0 {
			return nil
		}
		log.Printf("Next cycle in %v", interval)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("Shutting down")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

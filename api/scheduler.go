/*
scheduler.go - Automated annual allocation scheduler

PURPOSE:
  Periodically provisions (employee, leave type, year) balance rows so
  every employee starts a year with their annual allocation in place,
  without waiting for the first submit to lazily create rows.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Provisions the current year on every tick
  - From December onward also provisions the coming year, so balances
    exist before anyone books January leave
  - Provisioning is idempotent; re-runs are harmless

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewAllocationScheduler(service)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerAllocations endpoint (manual provisioning)
  - leave/service.go: EnsureAnnualAllocations
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/leave-engine/leave"
)

// AllocationScheduler provisions annual balances in the background.
type AllocationScheduler struct {
	Service       *leave.Service
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAllocationScheduler creates a new scheduler.
func NewAllocationScheduler(service *leave.Service) *AllocationScheduler {
	return &AllocationScheduler{
		Service:       service,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (as *AllocationScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)

	go as.run()

	log.Printf("[Scheduler] Started with check interval: %v", as.CheckInterval)
}

// Stop stops the scheduler.
func (as *AllocationScheduler) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker != nil {
		as.ticker.Stop()
		close(as.stop)
		as.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (as *AllocationScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start
	as.checkAndProvision()

	for {
		select {
		case <-as.ticker.C:
			as.checkAndProvision()
		case <-as.stop:
			return
		}
	}
}

func (as *AllocationScheduler) checkAndProvision() {
	ctx := context.Background()
	now := time.Now()

	years := []int{now.Year()}
	if now.Month() == time.December {
		years = append(years, now.Year()+1)
	}

	for _, year := range years {
		provisioned, err := as.Service.EnsureAnnualAllocations(ctx, year)
		if err != nil {
			log.Printf("[Scheduler] Error provisioning allocations for %d: %v", year, err)
			continue
		}
		if provisioned > 0 {
			log.Printf("[Scheduler] Provisioned %d balance rows for %d", provisioned, year)
		}
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (as *AllocationScheduler) RunNow() {
	as.checkAndProvision()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (as *AllocationScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(as.CheckInterval)
}

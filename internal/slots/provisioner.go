package slots

import (
	"context"
	"time"

	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// DefaultDayTimes are the slot start times created for each center and day.
var DefaultDayTimes = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00",
}

// DefaultSlotCapacity is the seat count of provisioned slots.
const DefaultSlotCapacity = 10

// Provisioner keeps slots created for every day of the booking window.
type Provisioner struct {
	repo     Repository
	logger   *logging.Logger
	interval time.Duration
	window   int
	times    []string
	capacity int
	now      func() time.Time
}

// NewProvisioner creates a provisioner for a window of days.
func NewProvisioner(repo Repository, window int, logger *logging.Logger) *Provisioner {
	if logger == nil {
		logger = logging.Default()
	}
	if window <= 0 {
		window = DefaultWindowDays
	}
	return &Provisioner{
		repo:     repo,
		logger:   logger,
		interval: time.Hour,
		window:   window,
		times:    DefaultDayTimes,
		capacity: DefaultSlotCapacity,
		now:      time.Now,
	}
}

func (p *Provisioner) WithInterval(d time.Duration) *Provisioner {
	if d > 0 {
		p.interval = d
	}
	return p
}

func (p *Provisioner) WithCapacity(n int) *Provisioner {
	if n > 0 {
		p.capacity = n
	}
	return p
}

// WithTimes overrides the slot start times ("HH:MM") created per day.
func (p *Provisioner) WithTimes(times []string) *Provisioner {
	if len(times) > 0 {
		p.times = append([]string(nil), times...)
	}
	return p
}

// Run provisions immediately and then every interval until ctx is done.
func (p *Provisioner) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.ProvisionWindow(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProvisionWindow(ctx)
		}
	}
}

// ProvisionWindow creates missing slots for each day of the window and
// returns the number created.
func (p *Provisioner) ProvisionWindow(ctx context.Context) int {
	total := 0
	for _, d := range AvailableDates(p.now(), p.window) {
		n, err := p.repo.EnsureDaySlots(ctx, d.Value, p.times, p.capacity)
		if err != nil {
			p.logger.Error("slot provisioning failed", "error", err, "date", d.Value)
			continue
		}
		total += n
	}
	if total > 0 {
		p.logger.Info("slots provisioned", "created", total, "window_days", p.window)
	}
	return total
}

package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rainelab/companion-backend-go/internal/agenda"
	"github.com/rainelab/companion-backend-go/internal/geocode"
	"github.com/rainelab/companion-backend-go/internal/notify"
	"github.com/rainelab/companion-backend-go/internal/weather"
)

// dedupTTL is how long a notified-item marker is retained before retirement.
const dedupTTL = 24 * time.Hour

// scanTimeout bounds one full scan cycle including all external calls.
const scanTimeout = 2 * time.Minute

// Options configures the reminder scanner.
type Options struct {
	Interval           time.Duration
	ReminderWindow     time.Duration
	EventLookaheadDays int
	TaskLookaheadDays  int
	MorningSummarySpec string // cron spec, e.g. "0 7 * * *"
	HomeLatitude       float64
	HomeLongitude      float64
}

// Scanner is the periodic reminder job: every interval it fetches upcoming
// events and tasks, sends at-most-one reminder per item within the window,
// and retires stale dedup markers. A daily trigger sends the morning summary.
type Scanner struct {
	cron     *cron.Cron
	calendar agenda.CalendarSource
	tasks    agenda.TaskSource
	weather  weather.Source
	geocoder geocode.Geocoder
	notifier notify.Notifier
	dedup    *notify.DedupRegistry
	opts     Options

	now func() time.Time
}

// NewScanner creates a reminder scanner. It does not start scanning until
// Start is called.
func NewScanner(
	calendar agenda.CalendarSource,
	tasks agenda.TaskSource,
	weatherSrc weather.Source,
	geocoder geocode.Geocoder,
	notifier notify.Notifier,
	opts Options,
) *Scanner {
	return &Scanner{
		calendar: calendar,
		tasks:    tasks,
		weather:  weatherSrc,
		geocoder: geocoder,
		notifier: notifier,
		dedup:    notify.NewDedupRegistry(),
		opts:     opts,
		now:      time.Now,
	}
}

// Start registers the interval scan and the daily morning summary and starts
// the scheduler. Cycles are serialized: if a scan is still running when the
// interval elapses, that tick is skipped.
func (s *Scanner) Start() error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	interval := fmt.Sprintf("@every %s", s.opts.Interval)
	if _, err := c.AddFunc(interval, s.Scan); err != nil {
		return fmt.Errorf("failed to schedule reminder scan: %w", err)
	}
	if s.opts.MorningSummarySpec != "" {
		if _, err := c.AddFunc(s.opts.MorningSummarySpec, s.MorningSummary); err != nil {
			return fmt.Errorf("failed to schedule morning summary: %w", err)
		}
	}

	c.Start()
	s.cron = c
	log.Printf("[Scanner] started: reminders every %s, morning summary %q",
		s.opts.Interval, s.opts.MorningSummarySpec)
	return nil
}

// Stop stops the scheduler. The returned context is done once any in-flight
// scan has finished.
func (s *Scanner) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}

// Scan runs one reminder cycle. Errors from collaborators are logged and the
// cycle degrades or ends early; the next interval always fires.
func (s *Scanner) Scan() {
	now := s.now()
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	log.Printf("[Scanner] checking for upcoming events")

	events, err := s.calendar.UpcomingEvents(ctx, s.opts.EventLookaheadDays)
	if err != nil {
		log.Printf("[Scanner] event fetch failed: %v", err)
		events = nil
	}
	tasks, err := s.tasks.UpcomingTasks(ctx, s.opts.TaskLookaheadDays)
	if err != nil {
		log.Printf("[Scanner] task fetch failed: %v", err)
		tasks = nil
	}

	threshold := now.Add(s.opts.ReminderWindow)
	sent := 0

	for _, event := range events {
		if event.Time.IsZero() || event.Time.Before(now) || event.Time.After(threshold) {
			continue
		}
		key := notify.Key("event", event.Name, event.Time)
		if s.dedup.Seen(key) {
			continue
		}

		lat, lon := s.resolveLocation(event.Location)
		sample, err := s.weather.Current(ctx, lat, lon)
		if err != nil {
			// Skip without marking so the item retries next cycle.
			log.Printf("[Scanner] weather fetch failed for %q: %v", event.Name, err)
			continue
		}

		s.sendReminder(ctx, event.Name, event.Time, sample)
		s.dedup.Mark(key, now)
		sent++
	}

	for _, task := range tasks {
		if task.Due == nil || task.Due.Before(now) || task.Due.After(threshold) {
			continue
		}
		key := notify.Key("task", task.Title, *task.Due)
		if s.dedup.Seen(key) {
			continue
		}

		sample, err := s.weather.Current(ctx, s.opts.HomeLatitude, s.opts.HomeLongitude)
		if err != nil {
			log.Printf("[Scanner] weather fetch failed for %q: %v", task.Title, err)
			continue
		}

		s.sendReminder(ctx, task.Title, *task.Due, sample)
		s.dedup.Mark(key, now)
		sent++
	}

	retired := s.dedup.Prune(now.Add(-dedupTTL))
	if sent > 0 || retired > 0 {
		log.Printf("[Scanner] cycle done: sent=%d retired=%d tracked=%d", sent, retired, s.dedup.Len())
	}
}

// MorningSummary sends the daily condensed overview of today's agenda and
// the weather at home.
func (s *Scanner) MorningSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	log.Printf("[Scanner] sending morning summary")

	events, err := s.calendar.UpcomingEvents(ctx, 1)
	if err != nil {
		log.Printf("[Scanner] event fetch failed: %v", err)
		events = nil
	}
	tasks, err := s.tasks.UpcomingTasks(ctx, 1)
	if err != nil {
		log.Printf("[Scanner] task fetch failed: %v", err)
		tasks = nil
	}

	sample, err := s.weather.Current(ctx, s.opts.HomeLatitude, s.opts.HomeLongitude)
	if err != nil {
		log.Printf("[Scanner] home weather fetch failed: %v", err)
		return
	}

	summary := fmt.Sprintf("Today: %.0f°C", sample.Temperature)
	if sample.Precipitation > 0 {
		summary += fmt.Sprintf(", %.1fmm rain expected", sample.Precipitation)
	}
	summary += fmt.Sprintf("\n%d events, %d tasks", len(events), len(tasks))

	if err := s.notifier.Notify(ctx, "Good Morning - Today's Weather", summary); err != nil {
		log.Printf("[Scanner] morning summary notification failed: %v", err)
	}
}

// resolveLocation geocodes an event location, falling back to home
// coordinates when the address is empty or cannot be resolved.
func (s *Scanner) resolveLocation(address string) (float64, float64) {
	if address == "" || s.geocoder == nil {
		return s.opts.HomeLatitude, s.opts.HomeLongitude
	}
	coords, err := s.geocoder.Geocode(address)
	if err != nil || coords == nil {
		return s.opts.HomeLatitude, s.opts.HomeLongitude
	}
	return coords.Latitude, coords.Longitude
}

func (s *Scanner) sendReminder(ctx context.Context, name string, at time.Time, sample weather.Sample) {
	title := fmt.Sprintf("Reminder: %s", name)
	message := fmt.Sprintf("Starting at %s\nWeather: %s", at.Format("3:04 PM"), sample.Summary())
	if err := s.notifier.Notify(ctx, title, message); err != nil {
		log.Printf("[Scanner] reminder notification failed for %q: %v", name, err)
	}
}

// DedupLen reports the number of live dedup markers.
func (s *Scanner) DedupLen() int {
	return s.dedup.Len()
}

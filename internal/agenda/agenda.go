package agenda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rainelab/companion-backend-go/internal/models"
)

// CalendarSource fetches upcoming calendar events within a bounded lookahead.
type CalendarSource interface {
	UpcomingEvents(ctx context.Context, daysAhead int) ([]models.Event, error)
}

// TaskSource fetches upcoming tasks within a bounded lookahead.
type TaskSource interface {
	UpcomingTasks(ctx context.Context, daysAhead int) ([]models.Task, error)
}

// HTTPSource reads events and tasks from JSON endpoints. This stands in for
// the calendar/task providers; credential handling lives behind those
// endpoints, not here.
type HTTPSource struct {
	calendarURL string
	tasksURL    string
	http        *http.Client
}

// NewHTTPSource creates a source for the given endpoints. Empty URLs yield
// empty results.
func NewHTTPSource(calendarURL, tasksURL string) *HTTPSource {
	return &HTTPSource{
		calendarURL: calendarURL,
		tasksURL:    tasksURL,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

// UpcomingEvents implements CalendarSource.
func (s *HTTPSource) UpcomingEvents(ctx context.Context, daysAhead int) ([]models.Event, error) {
	if s.calendarURL == "" {
		return nil, nil
	}

	var payload struct {
		Events []struct {
			Name     string    `json:"name"`
			Location string    `json:"location"`
			Time     time.Time `json:"time"`
		} `json:"events"`
	}
	if err := s.fetch(ctx, s.calendarURL, daysAhead, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	events := make([]models.Event, 0, len(payload.Events))
	for _, e := range payload.Events {
		events = append(events, models.Event{Name: e.Name, Location: e.Location, Time: e.Time})
	}
	return events, nil
}

// UpcomingTasks implements TaskSource.
func (s *HTTPSource) UpcomingTasks(ctx context.Context, daysAhead int) ([]models.Task, error) {
	if s.tasksURL == "" {
		return nil, nil
	}

	var payload struct {
		Tasks []struct {
			Title string     `json:"title"`
			Due   *time.Time `json:"due"`
		} `json:"tasks"`
	}
	if err := s.fetch(ctx, s.tasksURL, daysAhead, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(payload.Tasks))
	for _, t := range payload.Tasks {
		tasks = append(tasks, models.Task{Title: t.Title, Due: t.Due})
	}
	return tasks, nil
}

func (s *HTTPSource) fetch(ctx context.Context, endpoint string, daysAhead int, out interface{}) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("days_ahead", fmt.Sprintf("%d", daysAhead))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

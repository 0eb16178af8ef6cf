// Package reporting computes the dashboard counters. Results are memoized
// per combination of collection versions and calendar date, so repeated
// dashboard polls cost one version probe per collection until something
// changes or the day rolls over.
package reporting

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/clinicdesk/clinicdesk/internal/domain/diagnostics"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/store"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

// Stats holds the four dashboard counters.
type Stats struct {
	TotalPatients     int    `json:"total_patients"`
	TodayAppointments int    `json:"today_appointments"`
	PendingReports    int    `json:"pending_reports"`
	NewRegistrations  int    `json:"new_registrations"`
	Date              string `json:"date"`
}

// Compute derives the counters from already loaded collections.
func Compute(patients []*identity.Patient, appts []*scheduling.Appointment, reports []*diagnostics.Report, today string) Stats {
	st := Stats{
		TotalPatients:     len(patients),
		TodayAppointments: len(scheduling.FilterToday(appts, today)),
		Date:              today,
	}
	for _, r := range reports {
		if r.IsPending() {
			st.PendingReports++
		}
	}
	for _, p := range patients {
		if p.RegistrationDate() == today {
			st.NewRegistrations++
		}
	}
	return st
}

type cacheKey struct {
	date         string
	patients     int64
	appointments int64
	reports      int64
}

// Dashboard serves Stats with a read-through cache.
type Dashboard struct {
	store store.Store
	now   clinicdate.Clock
	loc   *time.Location

	mu     sync.Mutex
	key    cacheKey
	cached *Stats
}

func NewDashboard(s store.Store, now clinicdate.Clock, loc *time.Location) *Dashboard {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Dashboard{store: s, now: now, loc: loc}
}

// Stats returns the counters for today, recomputing only when one of the
// counted collections has changed since the cached result was built.
func (d *Dashboard) Stats(ctx context.Context) (Stats, error) {
	today := clinicdate.Today(d.now(), d.loc)

	key := cacheKey{date: today}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { key.patients, err = d.store.Version(gctx, store.Patients); return })
	g.Go(func() (err error) { key.appointments, err = d.store.Version(gctx, store.Appointments); return })
	g.Go(func() (err error) { key.reports, err = d.store.Version(gctx, store.Reports); return })
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	d.mu.Lock()
	if d.cached != nil && d.key == key {
		st := *d.cached
		d.mu.Unlock()
		return st, nil
	}
	d.mu.Unlock()

	st, loadedKey, err := d.compute(ctx, today)
	if err != nil {
		return Stats{}, err
	}

	d.mu.Lock()
	d.key, d.cached = loadedKey, &st
	d.mu.Unlock()
	return st, nil
}

// compute loads the three counted collections in parallel. The returned key
// carries the versions actually read, not the ones probed earlier.
func (d *Dashboard) compute(ctx context.Context, today string) (Stats, cacheKey, error) {
	var (
		patients []identity.Patient
		appts    []scheduling.Appointment
		reports  []diagnostics.Report
	)
	key := cacheKey{date: today}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		patients, key.patients, err = store.Load[identity.Patient](gctx, d.store, store.Patients)
		return
	})
	g.Go(func() (err error) {
		appts, key.appointments, err = store.Load[scheduling.Appointment](gctx, d.store, store.Appointments)
		return
	})
	g.Go(func() (err error) {
		reports, key.reports, err = store.Load[diagnostics.Report](gctx, d.store, store.Reports)
		return
	})
	if err := g.Wait(); err != nil {
		return Stats{}, cacheKey{}, err
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, cacheKey{}, err
	}
	return Compute(ptrs(patients), ptrs(appts), ptrs(reports), today), key, nil
}

func ptrs[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}

// Handler provides HTTP handlers for the dashboard API.
type Handler struct {
	dash *Dashboard
}

func NewHandler(dash *Dashboard) *Handler {
	return &Handler{dash: dash}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/dashboard", auth.RequireRole(auth.RoleReceptionist))
	g.GET("/stats", h.GetStats)
}

func (h *Handler) GetStats(c echo.Context) error {
	st, err := h.dash.Stats(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, st)
}

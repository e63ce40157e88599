package registry

import (
	"github.com/prometheus/client_golang/prometheus"

	"trwlexporter/internal/services"
)

// Collector exposes the per-account aggregates as Prometheus series. Each
// Collect call works on copy-on-read snapshots, so it observes every merge
// as a unit and never blocks the pollers beyond the aggregate read locks.
type Collector struct {
	service services.ExporterServiceInterface

	checkins   *prometheus.Desc
	distance   *prometheus.Desc
	duration   *prometheus.Desc
	points     *prometheus.Desc
	delayed    *prometheus.Desc
	cancelled  *prometheus.Desc
	malformed  *prometheus.Desc
	byCategory *prometheus.Desc
	byLine     *prometheus.Desc
	lines      *prometheus.Desc
	lastSeen   *prometheus.Desc
	accountUp  *prometheus.Desc
}

func NewCollector(service services.ExporterServiceInterface) *Collector {
	user := []string{"user"}
	return &Collector{
		service: service,
		checkins: prometheus.NewDesc("traewelling_checkins_total",
			"Check-ins merged for this account", user, nil),
		distance: prometheus.NewDesc("traewelling_distance_meters_total",
			"Cumulative distance travelled in meters", user, nil),
		duration: prometheus.NewDesc("traewelling_duration_minutes_total",
			"Cumulative journey duration in minutes", user, nil),
		points: prometheus.NewDesc("traewelling_points_total",
			"Cumulative Traewelling points", user, nil),
		delayed: prometheus.NewDesc("traewelling_delayed_checkins_total",
			"Check-ins with a delayed departure or arrival", user, nil),
		cancelled: prometheus.NewDesc("traewelling_cancelled_checkins_total",
			"Check-ins whose destination stop was cancelled", user, nil),
		malformed: prometheus.NewDesc("traewelling_malformed_checkins_total",
			"Upstream records skipped by the merge engine", user, nil),
		byCategory: prometheus.NewDesc("traewelling_checkins_by_category_total",
			"Check-ins per train category", []string{"user", "category"}, nil),
		byLine: prometheus.NewDesc("traewelling_checkins_by_line_total",
			"Check-ins per line", []string{"user", "line"}, nil),
		lines: prometheus.NewDesc("traewelling_lines",
			"Distinct lines seen for this account", user, nil),
		lastSeen: prometheus.NewDesc("traewelling_last_checkin_timestamp_seconds",
			"Unix timestamp of the newest merged check-in, 0 before the first one", user, nil),
		accountUp: prometheus.NewDesc("traewelling_account_up",
			"1 while the account is being polled, 0 after a permanent upstream error", user, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.checkins
	ch <- c.distance
	ch <- c.duration
	ch <- c.points
	ch <- c.delayed
	ch <- c.cancelled
	ch <- c.malformed
	ch <- c.byCategory
	ch <- c.byLine
	ch <- c.lines
	ch <- c.lastSeen
	ch <- c.accountUp
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, state := range c.service.Accounts() {
		snap := state.Aggregate.Snapshot()
		user := state.Label

		ch <- prometheus.MustNewConstMetric(c.checkins, prometheus.CounterValue, float64(snap.CheckinsTotal), user)
		ch <- prometheus.MustNewConstMetric(c.distance, prometheus.CounterValue, float64(snap.DistanceMeters), user)
		ch <- prometheus.MustNewConstMetric(c.duration, prometheus.CounterValue, float64(snap.DurationMinutes), user)
		ch <- prometheus.MustNewConstMetric(c.points, prometheus.CounterValue, float64(snap.PointsTotal), user)
		ch <- prometheus.MustNewConstMetric(c.delayed, prometheus.CounterValue, float64(snap.DelayedTotal), user)
		ch <- prometheus.MustNewConstMetric(c.cancelled, prometheus.CounterValue, float64(snap.CancelledTotal), user)
		ch <- prometheus.MustNewConstMetric(c.malformed, prometheus.CounterValue, float64(snap.MalformedTotal), user)

		for category, n := range snap.ByCategory {
			ch <- prometheus.MustNewConstMetric(c.byCategory, prometheus.CounterValue, float64(n), user, category)
		}
		for line, n := range snap.ByLine {
			ch <- prometheus.MustNewConstMetric(c.byLine, prometheus.CounterValue, float64(n), user, line)
		}
		ch <- prometheus.MustNewConstMetric(c.lines, prometheus.GaugeValue, float64(len(snap.ByLine)), user)

		lastSeen := 0.0
		if !snap.LastCheckInAt.IsZero() {
			lastSeen = float64(snap.LastCheckInAt.Unix())
		}
		ch <- prometheus.MustNewConstMetric(c.lastSeen, prometheus.GaugeValue, lastSeen, user)

		up := 0.0
		if state.Up() {
			up = 1
		}
		ch <- prometheus.MustNewConstMetric(c.accountUp, prometheus.GaugeValue, up, user)
	}
}

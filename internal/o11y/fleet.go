package o11y

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/repair"
	"github.com/semanticallynull/bikerental/reservation"
	"github.com/semanticallynull/bikerental/store"
)

const namespace = "bikerental"

// StoreMetrics counts completed reservation and repair workflow steps. It is
// a store.Observer.
type StoreMetrics struct {
	reservations *prometheus.CounterVec
	revenue      *prometheus.CounterVec
	defects      *prometheus.CounterVec
	repairs      *prometheus.CounterVec
}

var _ store.Observer = (*StoreMetrics)(nil)

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "Reservations created, by bike type and location.",
		}, []string{"bike_type", "location"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_revenue_euros_total",
			Help:      "Sum of the prices frozen at reservation time.",
		}, []string{"bike_type"}),
		defects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "defects_reported_total",
			Help:      "Repair tickets opened, by defect type.",
		}, []string{"defect_type"}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bikes_repaired_total",
			Help:      "Bikes returned to the pool from a repair ticket.",
		}, []string{"bike_type"}),
	}
	reg.MustRegister(m.reservations, m.revenue, m.defects, m.repairs)
	return m
}

func (m *StoreMetrics) ReservationCreated(r reservation.Reservation) {
	m.reservations.WithLabelValues(r.BikeType.String(), r.Location.String()).Inc()
	m.revenue.WithLabelValues(r.BikeType.String()).Add(r.TotalPrice)
}

func (m *StoreMetrics) DefectReported(r repair.Repair) {
	m.defects.WithLabelValues(r.DefectType).Inc()
}

func (m *StoreMetrics) BikeRepaired(b bike.Bike) {
	m.repairs.WithLabelValues(b.Type.String()).Inc()
}

// FleetCollector reports the fleet per bike type on every scrape. summary is
// called from the scraping goroutine and must do its own locking.
type FleetCollector struct {
	summary func() map[bike.Type]store.FleetCount

	total      *prometheus.Desc
	reservable *prometheus.Desc
	defect     *prometheus.Desc
}

var _ prometheus.Collector = (*FleetCollector)(nil)

func NewFleetCollector(summary func() map[bike.Type]store.FleetCount) *FleetCollector {
	labels := []string{"bike_type"}
	return &FleetCollector{
		summary:    summary,
		total:      prometheus.NewDesc(namespace+"_fleet_bikes", "Bikes in the fleet.", labels, nil),
		reservable: prometheus.NewDesc(namespace+"_fleet_bikes_reservable", "Bikes that are OK and free.", labels, nil),
		defect:     prometheus.NewDesc(namespace+"_fleet_bikes_defect", "Bikes waiting for repair.", labels, nil),
	}
}

func (c *FleetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.reservable
	ch <- c.defect
}

func (c *FleetCollector) Collect(ch chan<- prometheus.Metric) {
	for t, fc := range c.summary() {
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(fc.Total), t.String())
		ch <- prometheus.MustNewConstMetric(c.reservable, prometheus.GaugeValue, float64(fc.Reservable), t.String())
		ch <- prometheus.MustNewConstMetric(c.defect, prometheus.GaugeValue, float64(fc.Defect), t.String())
	}
}

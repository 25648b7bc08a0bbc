// Package metrics exposes catalog state as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/shopapi/internal/model"
)

const namespace = "catalog"

// collectTimeout bounds the store query made for each scrape.
const collectTimeout = 5 * time.Second

// StatisticsSource provides catalog aggregates.
type StatisticsSource interface {
	Statistics(ctx context.Context) (*model.Statistics, error)
}

// CatalogCollector reads the catalog statistics on every scrape, so the
// gauges always match the store.
type CatalogCollector struct {
	source StatisticsSource
	logger *zap.Logger

	items          *prometheus.Desc
	availableItems *prometheus.Desc
	inventoryValue *prometheus.Desc
	itemsByCat     *prometheus.Desc
	scrapeErrors   prometheus.Counter
}

// NewCatalogCollector creates a collector backed by source.
func NewCatalogCollector(source StatisticsSource, logger *zap.Logger) *CatalogCollector {
	return &CatalogCollector{
		source: source,
		logger: logger,
		items: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "items"),
			"Number of items in the catalog.",
			nil, nil,
		),
		availableItems: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "items_available"),
			"Number of items marked available.",
			nil, nil,
		),
		inventoryValue: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "inventory_value"),
			"Sum of price times stock count over all items.",
			nil, nil,
		),
		itemsByCat: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "items_by_category"),
			"Number of items per category.",
			[]string{"category"}, nil,
		),
		scrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_errors_total",
			Help:      "Number of scrapes that failed to read catalog statistics.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *CatalogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.items
	ch <- c.availableItems
	ch <- c.inventoryValue
	ch <- c.itemsByCat
	c.scrapeErrors.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *CatalogCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	stats, err := c.source.Statistics(ctx)
	if err != nil {
		c.logger.Warn("failed to collect catalog metrics", zap.Error(err))
		c.scrapeErrors.Inc()
		c.scrapeErrors.Collect(ch)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(stats.TotalItems))
	ch <- prometheus.MustNewConstMetric(c.availableItems, prometheus.GaugeValue, float64(stats.AvailableItems))
	ch <- prometheus.MustNewConstMetric(c.inventoryValue, prometheus.GaugeValue, stats.TotalValue)
	for category, count := range stats.Categories {
		ch <- prometheus.MustNewConstMetric(c.itemsByCat, prometheus.GaugeValue, float64(count), category)
	}
	c.scrapeErrors.Collect(ch)
}

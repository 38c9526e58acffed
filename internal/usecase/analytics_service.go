package usecase

import (
	"fmt"
	"math"
	"sort"

	"github.com/catalogrank/backend/internal/domain"
	"github.com/catalogrank/backend/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Analytics defaults
const (
	DefaultHistogramBins      = 20
	DefaultTopLimit           = 10
	DefaultCategoryLimit      = 15
	priceByCategoryCategories = 5
)

// histogramEdgeAdjust is the relative widening applied to the outer histogram edges
const histogramEdgeAdjust = 0.001

// AnalyticsService computes catalog-wide statistics.
// Every call is recomputed from the snapshot it is given; nothing is cached.
type AnalyticsService struct {
	logger *zap.Logger
}

// NewAnalyticsService creates an analytics service
func NewAnalyticsService(logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		logger: logging.OrNop(logger).Named("analytics"),
	}
}

// Summary returns row counts, distinct categorical values and the normalized price range
func (s *AnalyticsService) Summary(catalog *domain.Catalog) (*domain.AggregateSummary, error) {
	if err := requireColumns(catalog,
		domain.ColumnBrand, domain.ColumnMaterial, domain.ColumnColor,
		domain.ColumnPrice, domain.ColumnImages,
	); err != nil {
		return nil, err
	}

	rows := catalog.Rows()
	brands := make(map[string]struct{})
	materials := make(map[string]struct{})
	colors := make(map[string]struct{})
	withImages := 0

	for i := range rows {
		addDistinct(brands, rows[i].Brand)
		addDistinct(materials, rows[i].Material)
		addDistinct(colors, rows[i].Color)
		if _, ok := ParseFirstImage(rows[i].RawImages); ok {
			withImages++
		}
	}

	summary := &domain.AggregateSummary{
		TotalProducts:      len(rows),
		UniqueBrands:       len(brands),
		UniqueMaterials:    len(materials),
		UniqueColors:       len(colors),
		PriceRange:         priceRange(normalizedPrices(rows)),
		ProductsWithImages: withImages,
	}
	if len(rows) > 0 {
		summary.ImagePercentage = float64(withImages) / float64(len(rows)) * 100
	}

	return summary, nil
}

// PriceDistribution buckets normalized prices into bins equal-width, right-closed intervals
func (s *AnalyticsService) PriceDistribution(catalog *domain.Catalog, bins int) (*domain.Histogram, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("%w: bins must be positive, got %d", domain.ErrInvalidRequest, bins)
	}
	if err := requireColumns(catalog, domain.ColumnPrice); err != nil {
		return nil, err
	}

	prices := normalizedPrices(catalog.Rows())
	if len(prices) == 0 {
		return &domain.Histogram{Bins: []string{}, Counts: []int{}, Labels: []string{}}, nil
	}

	edges := histogramEdges(prices, bins)
	counts := make([]int, bins)
	for _, p := range prices {
		counts[binIndex(edges, p)]++
	}

	hist := &domain.Histogram{
		Bins:   make([]string, len(edges)),
		Counts: counts,
		Labels: make([]string, bins),
		Edges:  edges,
	}
	for i, e := range edges {
		hist.Bins[i] = fmt.Sprintf("$%.2f", e)
	}
	for i := 0; i < bins; i++ {
		hist.Labels[i] = fmt.Sprintf("$%.0f-$%.0f", edges[i], edges[i+1])
	}

	s.logger.Debug("price distribution computed", zap.Int("prices", len(prices)), zap.Int("bins", bins))
	return hist, nil
}

// TopValues counts the non-empty cells of a categorical column.
// Ties keep first-seen order; a non-positive limit returns the whole table.
func (s *AnalyticsService) TopValues(catalog *domain.Catalog, column string, limit int) (domain.CountTable, error) {
	if err := requireColumns(catalog, column); err != nil {
		return nil, err
	}

	rows := catalog.Rows()
	counter := newValueCounter()
	for i := range rows {
		counter.add(rows[i].Value(column))
	}
	return counter.top(limit), nil
}

// TopCategories counts category occurrences across all rows after list normalization
func (s *AnalyticsService) TopCategories(catalog *domain.Catalog, limit int) (domain.CountTable, error) {
	if err := requireColumns(catalog, domain.ColumnCategories); err != nil {
		return nil, err
	}

	rows := catalog.Rows()
	counter := newValueCounter()
	for i := range rows {
		for _, c := range ParseList(rows[i].RawCategories) {
			counter.add(c)
		}
	}
	return counter.top(limit), nil
}

// PriceByCategory returns the mean price of the five most frequent categories
// among priced rows, sorted by category name.
func (s *AnalyticsService) PriceByCategory(catalog *domain.Catalog) (domain.GroupedMeanTable, error) {
	if err := requireColumns(catalog, domain.ColumnPrice, domain.ColumnCategories); err != nil {
		return nil, err
	}

	type pair struct {
		category string
		price    float64
	}

	rows := catalog.Rows()
	var exploded []pair
	counter := newValueCounter()
	for i := range rows {
		price, ok := ParseMoney(rows[i].RawPrice)
		if !ok {
			continue
		}
		for _, c := range ParseList(rows[i].RawCategories) {
			exploded = append(exploded, pair{category: c, price: price})
			counter.add(c)
		}
	}

	top := counter.top(priceByCategoryCategories)
	sums := make(map[string]float64, len(top))
	counts := make(map[string]int, len(top))
	for _, vc := range top {
		counts[vc.Value] = 0
	}
	for _, p := range exploded {
		if _, ok := counts[p.category]; ok {
			sums[p.category] += p.price
			counts[p.category]++
		}
	}

	table := make(domain.GroupedMeanTable, 0, len(top))
	for _, vc := range top {
		n := counts[vc.Value]
		table = append(table, domain.CategoryPrice{
			Category:     vc.Value,
			AvgPrice:     round2(sums[vc.Value] / float64(n)),
			ProductCount: n,
		})
	}
	sort.Slice(table, func(i, j int) bool {
		return table[i].Category < table[j].Category
	})

	return table, nil
}

// requireColumns rejects a missing catalog or one lacking any of columns
func requireColumns(catalog *domain.Catalog, columns ...string) error {
	if catalog == nil {
		return domain.ErrDataUnavailable
	}
	return catalog.Require(columns...)
}

func addDistinct(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

// normalizedPrices returns every successfully parsed price in row order
func normalizedPrices(rows []domain.CatalogRow) []float64 {
	prices := make([]float64, 0, len(rows))
	for i := range rows {
		if p, ok := ParseMoney(rows[i].RawPrice); ok {
			prices = append(prices, p)
		}
	}
	return prices
}

// priceRange returns min/max/mean/median, or all zeros for no prices
func priceRange(prices []float64) domain.PriceRange {
	if len(prices) == 0 {
		return domain.PriceRange{}
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	sum := 0.0
	for _, p := range sorted {
		sum += p
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return domain.PriceRange{
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   sum / float64(n),
		Median: median,
	}
}

// histogramEdges returns bins+1 edges spanning the observed prices.
// A degenerate range is widened on both sides; otherwise the first edge is
// lowered slightly so the minimum falls inside the first right-closed bin.
func histogramEdges(prices []float64, bins int) []float64 {
	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		lo = min(lo, p)
		hi = max(hi, p)
	}

	if lo == hi {
		pad := histogramEdgeAdjust * math.Abs(lo)
		if lo == 0 {
			pad = histogramEdgeAdjust
		}
		return linspace(lo-pad, hi+pad, bins+1)
	}

	edges := linspace(lo, hi, bins+1)
	edges[0] -= (hi - lo) * histogramEdgeAdjust
	return edges
}

func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// binIndex locates v in the right-closed interval (edges[i], edges[i+1]]
func binIndex(edges []float64, v float64) int {
	i := sort.SearchFloat64s(edges, v) - 1
	if i < 0 {
		return 0
	}
	if i > len(edges)-2 {
		return len(edges) - 2
	}
	return i
}

// round2 rounds to cents, ties to even
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// valueCounter counts occurrences while remembering first-seen order
type valueCounter struct {
	index  map[string]int
	counts domain.CountTable
}

func newValueCounter() *valueCounter {
	return &valueCounter{index: make(map[string]int)}
}

func (c *valueCounter) add(v string) {
	if v == "" {
		return
	}
	if i, ok := c.index[v]; ok {
		c.counts[i].Count++
		return
	}
	c.index[v] = len(c.counts)
	c.counts = append(c.counts, domain.ValueCount{Value: v, Count: 1})
}

// top returns the counts sorted by descending frequency, truncated to limit when positive
func (c *valueCounter) top(limit int) domain.CountTable {
	out := make(domain.CountTable, len(c.counts))
	copy(out, c.counts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

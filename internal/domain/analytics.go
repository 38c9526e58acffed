package domain

// PriceRange summarizes normalized prices
type PriceRange struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
}

// AggregateSummary holds catalog-wide descriptive statistics
type AggregateSummary struct {
	TotalProducts      int        `json:"total_products" yaml:"total_products"`
	UniqueBrands       int        `json:"unique_brands" yaml:"unique_brands"`
	UniqueMaterials    int        `json:"unique_materials" yaml:"unique_materials"`
	UniqueColors       int        `json:"unique_colors" yaml:"unique_colors"`
	PriceRange         PriceRange `json:"price_range" yaml:"price_range"`
	ProductsWithImages int        `json:"products_with_images" yaml:"products_with_images"`
	ImagePercentage    float64    `json:"image_percentage" yaml:"image_percentage"`
}

// Histogram is an equal-width price distribution
type Histogram struct {
	Bins   []string  `json:"bins" yaml:"bins"`
	Counts []int     `json:"counts" yaml:"counts"`
	Labels []string  `json:"labels" yaml:"labels"`
	Edges  []float64 `json:"-" yaml:"-"`
}

// ValueCount is one entry of a frequency table
type ValueCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// CountTable is a frequency table sorted by descending count
type CountTable []ValueCount

// Total returns the sum of all counts
func (t CountTable) Total() int {
	total := 0
	for _, vc := range t {
		total += vc.Count
	}
	return total
}

// CategoryPrice is the mean price of one category
type CategoryPrice struct {
	Category     string  `json:"category" yaml:"category"`
	AvgPrice     float64 `json:"avg_price" yaml:"avg_price"`
	ProductCount int     `json:"product_count" yaml:"product_count"`
}

// GroupedMeanTable lists mean prices of the most frequent categories
type GroupedMeanTable []CategoryPrice

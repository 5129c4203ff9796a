package aggregator

import (
	"fmt"

	"statcan-proxy/src/internal/types"
)

// Dataset names
const (
	DatasetAffordability   = "affordability"
	DatasetHousingStress   = "housing-stress"
	DatasetMortgage        = "mortgage"
	DatasetVancouverStarts = "vancouver-starts"
	DatasetProvinceStarts  = "province-starts"
)

// Page groups the datasets shown together
type Page struct {
	Name     string
	Title    string
	Datasets []string
}

var startYears = []string{"2017", "2018", "2019", "2020", "2021", "2022", "2023"}

// Catalog returns fresh copies of every known dataset
func Catalog() []*Dataset {
	return []*Dataset{
		{
			Name:   DatasetAffordability,
			Title:  "Median Shelter-Cost-to-Income Ratio by CMA",
			Labels: []string{"Vancouver CMA", "Toronto CMA", "Montreal CMA", "Halifax CMA"},
			Batch:  types.LatestBatch(1, 128597, 128598, 128599, 128600),
			Series: []SeriesSpec{
				{Label: "Shelter-cost-to-income ratio (median)"},
			},
		},
		{
			Name:   DatasetHousingStress,
			Title:  "Households in Core Housing Need by Province (2021)",
			Labels: []string{"NL", "PEI", "NS", "NB", "QC", "ON", "MB", "SK", "AB", "BC"},
			Series: []SeriesSpec{
				{
					Label:  "Households Spending ≥30% on Shelter",
					Static: []float64{14.6, 15.5, 17.9, 12.9, 16.1, 24.2, 17.3, 17.2, 21.2, 25.5},
				},
			},
		},
		{
			Name:   DatasetMortgage,
			Title:  "Mortgage Burden by Region",
			Labels: []string{"BC", "AB", "SK", "MB", "ON", "QC", "Atlantic"},
			Batch:  types.LatestBatch(1, 1206820, 1206821, 1206822, 1206823, 1206824, 1206825, 1206826),
			Series: []SeriesSpec{
				{Label: "Mortgage payment-to-income ratio (%)"},
				{Label: "Avg. Insurance Rate (%)", Static: []float64{3.1, 2.8, 2.9, 3.0, 3.4, 2.7, 3.2}},
			},
		},
		{
			Name:   DatasetVancouverStarts,
			Title:  "Vancouver Annual Housing Starts",
			Labels: append([]string(nil), startYears...),
			Series: []SeriesSpec{
				{
					Label:  "Vancouver Annual Housing Starts",
					Static: []float64{18500, 19500, 21200, 20100, 22500, 24000, 25500},
				},
			},
		},
		{
			Name:   DatasetProvinceStarts,
			Title:  "Housing Starts by Province",
			Labels: append([]string(nil), startYears...),
			Series: []SeriesSpec{
				{Label: "British Columbia", Static: []float64{40000, 42000, 44000, 41500, 45000, 48000, 50000}},
				{Label: "Alberta", Static: []float64{28000, 26000, 27000, 25000, 30000, 35000, 38000}},
				{Label: "Ontario", Static: []float64{70000, 75000, 78000, 72000, 80000, 85000, 90000}},
				{Label: "Quebec", Static: []float64{45000, 47000, 50000, 48000, 52000, 55000, 58000}},
			},
		},
	}
}

// Pages lists the dataset groups in display order
func Pages() []Page {
	return []Page{
		{
			Name:     "regional-affordability",
			Title:    "Regional Affordability",
			Datasets: []string{DatasetAffordability, DatasetHousingStress, DatasetMortgage},
		},
		{
			Name:     "national-housing",
			Title:    "National Housing Data",
			Datasets: []string{DatasetVancouverStarts, DatasetProvinceStarts},
		},
	}
}

// Lookup finds a dataset by name
func Lookup(name string) (*Dataset, bool) {
	for _, ds := range Catalog() {
		if ds.Name == name {
			return ds, true
		}
	}
	return nil, false
}

// Select resolves names to datasets, page names expanding to their datasets.
// No names selects the whole catalog.
func Select(names ...string) ([]*Dataset, error) {
	if len(names) == 0 {
		return Catalog(), nil
	}

	pages := make(map[string]Page)
	for _, p := range Pages() {
		pages[p.Name] = p
	}

	var out []*Dataset
	seen := make(map[string]bool)
	add := func(name string) error {
		if seen[name] {
			return nil
		}
		ds, ok := Lookup(name)
		if !ok {
			return fmt.Errorf("unknown dataset %q", name)
		}
		seen[name] = true
		out = append(out, ds)
		return nil
	}

	for _, name := range names {
		if p, ok := pages[name]; ok {
			for _, ds := range p.Datasets {
				if err := add(ds); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := add(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Names returns the dataset names of datasets in order
func Names(datasets []*Dataset) []string {
	names := make([]string, len(datasets))
	for i, ds := range datasets {
		names[i] = ds.Name
	}
	return names
}

package types

// Series is one labeled row of values aligned with ChartData.Labels.
type Series struct {
	Label  string    `json:"label"`
	Values []float64 `json:"data"`
}

// ChartData is a set of series sharing one category axis.
type ChartData struct {
	Labels []string `json:"labels"`
	Series []Series `json:"datasets"`
}

// Clone returns a deep copy so readers never alias a cell's data.
func (c *ChartData) Clone() *ChartData {
	if c == nil {
		return nil
	}
	out := &ChartData{
		Labels: append([]string(nil), c.Labels...),
		Series: make([]Series, len(c.Series)),
	}
	for i, s := range c.Series {
		out.Series[i] = Series{Label: s.Label, Values: append([]float64(nil), s.Values...)}
	}
	return out
}

// SeriesByLabel finds a series by its label.
func (c *ChartData) SeriesByLabel(label string) (Series, bool) {
	if c == nil {
		return Series{}, false
	}
	for _, s := range c.Series {
		if s.Label == label {
			return s, true
		}
	}
	return Series{}, false
}

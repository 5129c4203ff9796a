package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogDatasetsAreValid(t *testing.T) {
	for _, ds := range Catalog() {
		assert.NoError(t, ds.Validate(), ds.Name)
	}
}

func TestCatalogFetchedDatasets(t *testing.T) {
	ds, ok := Lookup(DatasetAffordability)
	require.True(t, ok)
	assert.True(t, ds.NeedsFetch())
	assert.Equal(t, []int64{128597, 128598, 128599, 128600}, ds.Batch.VectorIDs())
	for _, q := range ds.Batch {
		assert.Equal(t, 1, q.LatestN)
	}

	ds, ok = Lookup(DatasetMortgage)
	require.True(t, ok)
	assert.Equal(t, []int64{1206820, 1206821, 1206822, 1206823, 1206824, 1206825, 1206826}, ds.Batch.VectorIDs())
	assert.Equal(t, []string{"BC", "AB", "SK", "MB", "ON", "QC", "Atlantic"}, ds.Labels)
}

func TestCatalogReturnsCopies(t *testing.T) {
	ds, _ := Lookup(DatasetAffordability)
	ds.Labels[0] = "changed"

	again, _ := Lookup(DatasetAffordability)
	assert.Equal(t, "Vancouver CMA", again.Labels[0])
}

func TestPagesReferenceKnownDatasets(t *testing.T) {
	seen := 0
	for _, p := range Pages() {
		for _, name := range p.Datasets {
			_, ok := Lookup(name)
			assert.True(t, ok, name)
			seen++
		}
	}
	assert.Equal(t, len(Catalog()), seen)
}

func TestSelect(t *testing.T) {
	all, err := Select()
	require.NoError(t, err)
	assert.Len(t, all, 5)

	picked, err := Select("national-housing", DatasetVancouverStarts, DatasetMortgage)
	require.NoError(t, err)
	assert.Equal(t, []string{DatasetVancouverStarts, DatasetProvinceStarts, DatasetMortgage}, Names(picked))

	_, err = Select("nope")
	assert.EqualError(t, err, `unknown dataset "nope"`)

	_, ok := Lookup("nope")
	assert.False(t, ok)
}

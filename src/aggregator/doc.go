// Package aggregator turns vector query results into chart series and tracks
// the (loading, data, error) state of each dataset independently.
//
// A View mounts one Cell per dataset. A Loader issues each dataset's batch
// through a types.VectorFetcher, zips the response with the dataset labels and
// moves the dataset's cell to its terminal state. Loads of different datasets
// share nothing.
package aggregator

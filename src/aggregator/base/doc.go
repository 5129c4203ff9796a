// Package base provides the fan-out primitives used by the aggregation client:
// parallel execution of independent dataset loads and classified error collection.
package base

// Package dataprocessing contains the cleansing-and-metrics core of the
// flight-operations pipeline: batch deduplication and validation
// (Cleanser) and KPI derivation (Engine). Both stages are pure, stateless
// transformations over an in-memory batch; each pipeline run produces the
// curated set and the metrics report atomically as whole values before
// any persistence occurs.
package dataprocessing

// Package results records the outcome of terminated runs.
//
// Two stores implement Store: JSONStore keeps records in a local JSON file
// (or in memory when no path is given) and PostgresStore writes them to a
// run_results table through lib/pq. Open picks PostgreSQL when a DSN is
// configured.
package results

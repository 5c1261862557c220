// Package postgres provides PostgreSQL implementations of the store
// interfaces. All implementations accept a store.DBTX so they can run
// against either a connection pool or an open transaction, and map
// driver-level errors onto the store package's error taxonomy.
package postgres

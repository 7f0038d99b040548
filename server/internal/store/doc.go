// Package store keeps completed analyses in memory for the retention TTL.
// Store is safe for concurrent use; Run evicts expired entries in the
// background.
package store

// Package sqlite provides SQLite-backed verifier persistence.
//
// One database file holds balances, locks, votes and outcomes so a single
// transaction covers every state change of an engine operation.
package sqlite

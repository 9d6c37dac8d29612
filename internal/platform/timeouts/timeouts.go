// Package timeouts defines shared timeout constants used across the service.
package timeouts

import "time"

// LedgerCall caps a single outbound call to the payment ledger. An expired
// call rolls the surrounding operation back.
const LedgerCall = 10 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

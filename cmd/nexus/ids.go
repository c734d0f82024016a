package main

import "github.com/google/uuid"

// newUUID mints a fresh identifier. The core orchestrator never generates
// conversation or trace IDs itself; this CLI is the transport shim that
// does it on the core's behalf when a caller omits one.
func newUUID() string {
	return uuid.NewString()
}

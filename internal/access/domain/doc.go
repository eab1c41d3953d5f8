// Package domain defines the core entities of the access-control subsystem: recipients guarded
// by a shared access key, durable rate-limit counters keyed by client identifier, the append-only
// access attempt audit trail, stateless session tokens and the closed verification Outcome.
package domain

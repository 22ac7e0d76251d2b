// Package audit records security-relevant auth events to the audit log.
//
// Recording is fire-and-forget from the request path: handlers submit events
// to a Dispatcher after the security decision has been committed, and a failed
// write is logged, never surfaced to the client. The audit trail is evidence,
// not a gate.
package audit

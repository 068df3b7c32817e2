// Package session keeps browser sessions in memory.
//
// Sessions are keyed by a random UUID carried in a cookie and are dropped
// after an idle TTL. Nothing is written to disk: a configuration lives only
// as long as the session that created it.
package session

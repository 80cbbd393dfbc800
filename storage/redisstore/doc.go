// Package redisstore implements the expiring key/value storage interfaces
// (challenges, sessions, authorization codes, refresh tokens, revocations)
// against a shared Redis client. Every concern gets its own key prefix; all
// TTLs are enforced by Redis itself.
package redisstore

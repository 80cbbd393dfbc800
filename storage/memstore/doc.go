// Package memstore provides in-memory implementations of every storage
// interface in the system. It backs unit tests and the dev-mode server; a
// production deployment uses redisstore and sqlstore instead.
package memstore

// Package events notifies other instances about authentication lifecycle
// changes: successful logins and session/token teardown.
package events

import "context"

// Publisher broadcasts authentication lifecycle events.
type Publisher interface {
	// PublishLogin announces a successful primary authentication for a subject.
	PublishLogin(ctx context.Context, domain, subject string) error

	// PublishLogout announces a session teardown so peers can drop caches.
	PublishLogout(ctx context.Context, domain, subject, tokenID string) error
}

// NopPublisher discards every event. Used in dev mode and tests.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) PublishLogin(context.Context, string, string) error { return nil }

func (NopPublisher) PublishLogout(context.Context, string, string, string) error { return nil }

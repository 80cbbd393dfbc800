package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	loginTopic  = "ospass.login"
	logoutTopic = "ospass.logout"
)

// LoginEvent is the payload broadcast after a successful authentication.
type LoginEvent struct {
	Domain  string `json:"domain"`
	Subject string `json:"subject"`
}

// LogoutEvent is the payload broadcast on session or token teardown.
type LogoutEvent struct {
	Domain  string `json:"domain"`
	Subject string `json:"subject"`
	TokenID string `json:"token_id,omitempty"`
}

// WatermillPublisher implements Publisher on a Watermill message publisher.
type WatermillPublisher struct {
	publisher message.Publisher
}

var _ Publisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher wraps a Watermill publisher, typically backed by a
// Redis stream shared with peer instances.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishLogin(_ context.Context, domain, subject string) error {
	return p.publish(loginTopic, LoginEvent{Domain: domain, Subject: subject})
}

func (p *WatermillPublisher) PublishLogout(_ context.Context, domain, subject, tokenID string) error {
	return p.publish(logoutTopic, LogoutEvent{Domain: domain, Subject: subject, TokenID: tokenID})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "[WatermillPublisher.publish] marshal event")
	}
	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return errors.Wrapf(err, "[WatermillPublisher.publish] publish to %q", topic)
	}
	return nil
}

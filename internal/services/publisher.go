package services

import "log"

// Identity is the already-verified caller passed into every core operation.
// Authentication happens upstream; services only authorize against deal roles.
type Identity struct {
	UserID   uint
	Username string
}

// Publisher is the notification fan-out side channel. Delivery is best-effort;
// no service correctness depends on it.
type Publisher interface {
	Publish(topic string, dealID uint, payload any, updateType string) error
}

// publish invokes the fan-out and swallows failures. A nil publisher is valid
// (tests run without one).
func publish(p Publisher, topic string, dealID uint, payload any, updateType string) {
	if p == nil {
		return
	}
	if err := p.Publish(topic, dealID, payload, updateType); err != nil {
		log.Printf("publish %s/%s for deal %d failed: %v", topic, updateType, dealID, err)
	}
}

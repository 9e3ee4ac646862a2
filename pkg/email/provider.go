// Package email delivers the account mail: verification links and
// password reset tokens.
package email

import (
	"context"
	"errors"
	"strings"
)

// Provider is a pluggable email sender implementation.
type Provider interface {
	Send(ctx context.Context, message Message) error
	Close() error
}

// Message is the normalized email payload.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) normalized() Message {
	cp := m
	cp.From = strings.TrimSpace(cp.From)
	cp.Subject = strings.TrimSpace(cp.Subject)
	to := make([]string, 0, len(cp.To))
	seen := make(map[string]struct{}, len(cp.To))
	for _, addr := range cp.To {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		to = append(to, addr)
	}
	cp.To = to
	return cp
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	if m.Subject == "" {
		return errors.New("email subject is required")
	}
	if strings.TrimSpace(m.TextBody) == "" && strings.TrimSpace(m.HTMLBody) == "" {
		return errors.New("email body is required (text or html)")
	}
	return nil
}

package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// Masked replaces every answer value matching a mask pattern.
const Masked = "***"

type maskMiddleware struct {
	next     ports.ConversationReader
	patterns []*regexp.Regexp
}

// NewMaskMiddleware creates a middleware that masks answer values matching
// any of the patterns, such as the e-mails and phone numbers collected by
// data-collection questions.
func NewMaskMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.ConversationReader) ports.ConversationReader {
		return &maskMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *maskMiddleware) ListConversations(ctx context.Context, tenant string) ([]domain.Conversation, error) {
	convs, err := m.next.ListConversations(ctx, tenant)
	if err != nil {
		return nil, err
	}

	// The reader may hand out its own slices.
	out := make([]domain.Conversation, len(convs))
	for i, c := range convs {
		answers := make([]domain.Answer, len(c.Answers))
		for j, a := range c.Answers {
			if m.matches(a.Value) {
				a.Value = Masked
			}
			answers[j] = a
		}
		c.Answers = answers
		out[i] = c
	}
	return out, nil
}

func (m *maskMiddleware) matches(v string) bool {
	for _, p := range m.patterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

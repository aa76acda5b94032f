// Package assistant answers free-text travel questions about a trip.
//
// Replies come from a chat completion model when one is configured. When it
// is not, or the call fails, a canned reply built from the trip context is
// returned instead; callers never see an error.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxHistory is how many earlier conversation turns are sent with a message.
const maxHistory = 20

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one earlier turn of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is what a Completer is asked to complete.
type Request struct {
	System  string
	History []Message
	Message string
}

// Completer produces a model reply for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Reply is the assistant's answer. Fallback is true when the text is a canned
// reply rather than model output.
type Reply struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// Service builds prompts from trip context and asks the Completer for a reply.
type Service struct {
	completer Completer
	log       *slog.Logger
	printer   *message.Printer
}

// NewService returns a Service. A nil completer means every reply is a fallback.
func NewService(completer Completer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		completer: completer,
		log:       log,
		printer:   message.NewPrinter(language.AmericanEnglish),
	}
}

// Reply answers msg in the light of tc. history holds earlier turns, oldest
// first; only the last 20 are used.
func (s *Service) Reply(ctx context.Context, msg string, history []Message, tc TravelContext) Reply {
	if s.completer == nil {
		s.log.Warn("assistant not configured, using fallback reply")
		return Reply{Text: s.fallback(msg, tc), Fallback: true}
	}

	text, err := s.completer.Complete(ctx, Request{
		System:  s.systemPrompt(tc),
		History: truncate(history, maxHistory),
		Message: msg,
	})
	if err != nil {
		s.log.Error("assistant completion failed, using fallback reply", "error", err)
		return Reply{Text: s.fallback(msg, tc), Fallback: true}
	}
	if strings.TrimSpace(text) == "" {
		return Reply{Text: emptyReply}
	}
	return Reply{Text: text}
}

// truncate keeps the last limit usable turns of history.
func truncate(history []Message, limit int) []Message {
	kept := make([]Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role != RoleUser && m.Role != RoleAssistant {
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}

package report

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core/roster"
)

// ChatSession is a teaching assistant conversation over a fixed snapshot.
// History only grows when the assistant answered.
type ChatSession struct {
	mu      sync.Mutex
	svc     *Service
	snap    roster.Snapshot
	history []ChatMessage
}

// NewChatSession starts a conversation about the current snapshot.
func (svc *Service) NewChatSession() *ChatSession {
	return &ChatSession{svc: svc, snap: svc.snaps.Snapshot()}
}

// Send asks a question. Sessions are not safe for overlapping Sends; calls are serialized.
func (cs *ChatSession) Send(ctx context.Context, message string) (string, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	answer, err := cs.svc.complete(ctx, cs.snap, cs.history, message)
	if err != nil {
		return "", err
	}
	cs.history = append(cs.history,
		ChatMessage{Role: RoleUser, Content: message},
		ChatMessage{Role: RoleModel, Content: answer},
	)
	return answer, nil
}

func (cs *ChatSession) History() []ChatMessage {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]ChatMessage(nil), cs.history...)
}

// Chat answers message given a history held by the caller, against the current snapshot.
func (svc *Service) Chat(ctx context.Context, history []ChatMessage, message string) (string, error) {
	return svc.complete(ctx, svc.snaps.Snapshot(), history, message)
}

func (svc *Service) complete(ctx context.Context, snap roster.Snapshot, history []ChatMessage, message string) (string, error) {
	prompt, err := svc.prompts.chat(snap, history, strings.TrimSpace(message))
	if err != nil {
		return "", err
	}
	answer, err := svc.ai.Complete(ctx, prompt)
	if err != nil {
		return "", errors.Wrap(err, "failed to get AI response")
	}
	return strings.TrimSpace(answer), nil
}

// Package canned provides a stub responder that answers every user turn with
// a stock reply. It stands in for a real completion backend during
// development and tests, the same way a mock provider would.
package canned

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"

	"gopkg.in/yaml.v3"

	chatModels "parley/internal/domain/models/chat"
	chatSvc "parley/internal/domain/services/chat"
)

//go:embed replies.yaml
var repliesFile []byte

type replySet struct {
	Replies []string `yaml:"replies"`
}

// Responder picks a random canned reply for each user turn.
type Responder struct {
	replies []string
}

// NewResponder creates a responder from the embedded reply set.
func NewResponder() (*Responder, error) {
	var set replySet
	if err := yaml.Unmarshal(repliesFile, &set); err != nil {
		return nil, fmt.Errorf("unmarshal replies: %w", err)
	}
	if len(set.Replies) == 0 {
		return nil, fmt.Errorf("reply set is empty")
	}

	return &Responder{replies: set.Replies}, nil
}

var _ chatSvc.Responder = (*Responder)(nil)

// Reply returns a random canned reply. The user message and history are
// ignored; a real responder would feed them to a completion API.
func (r *Responder) Reply(ctx context.Context, userMessage string, history []chatModels.HistoryMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return r.replies[rand.IntN(len(r.replies))], nil
}

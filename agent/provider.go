package agent

import (
	"context"

	"github.com/harlanhaskins/claude-agent-go/anthropic"
	"github.com/harlanhaskins/claude-agent-go/pkg/models"
)

// Provider is the model backend the agent loop talks to. *anthropic.Client
// implements it; tests substitute scripted fakes.
type Provider interface {
	SendMessage(ctx context.Context, req *anthropic.MessageRequest) (*models.Message, error)
}

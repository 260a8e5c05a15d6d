// Package trace correlates agent calls, tool calls, and delegations under a
// single logical conversation and exports them as OpenTelemetry spans.
//
// A conversation id is attached to the context at the root of a call chain and
// inherited by every operation started within that chain. Concurrent chains
// are fully isolated; two simultaneous requests never observe each other's id.
package trace

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type conversationKey struct{}

// conversation is a mutable holder installed at the chain root. Mutating the
// holder makes an id created deep in the chain visible to the whole chain
// without re-threading the context.
type conversation struct {
	mu    sync.Mutex
	id    string
	ctype string
}

// NewConversation returns a context with a fresh conversation scope. The id
// itself is generated lazily on first GetOrCreateID call.
func NewConversation(ctx context.Context) context.Context {
	return context.WithValue(ctx, conversationKey{}, &conversation{})
}

// EnsureConversation returns a context that carries a conversation scope,
// installing a fresh one only when the chain has none. A scope whose id has
// not been generated yet is kept, so the caller and the chain observe the
// same id once it is created.
func EnsureConversation(ctx context.Context) context.Context {
	if _, ok := ctx.Value(conversationKey{}).(*conversation); ok {
		return ctx
	}
	return NewConversation(ctx)
}

// WithConversationID returns a context with a conversation scope bound to the
// given id.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey{}, &conversation{id: id})
}

// SetConversationID overwrites the id of the current conversation scope. It is
// a no-op when the context carries no scope.
func SetConversationID(ctx context.Context, id string) {
	conv, ok := ctx.Value(conversationKey{}).(*conversation)
	if !ok {
		return
	}
	conv.mu.Lock()
	conv.id = id
	conv.mu.Unlock()
}

// SetConversationType records the conversation classification in the current
// scope; every span started within the chain carries it. No-op when the
// context carries no scope.
func SetConversationType(ctx context.Context, conversationType string) {
	conv, ok := ctx.Value(conversationKey{}).(*conversation)
	if !ok {
		return
	}
	conv.mu.Lock()
	conv.ctype = conversationType
	conv.mu.Unlock()
}

// ConversationType returns the classification recorded for the current scope.
func ConversationType(ctx context.Context) (string, bool) {
	conv, ok := ctx.Value(conversationKey{}).(*conversation)
	if !ok {
		return "", false
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.ctype, conv.ctype != ""
}

// GetOrCreateID returns the active conversation id for the chain, generating
// and storing one if none exists yet. Calling it twice within the same chain
// returns the same id. A context without a conversation scope gets a throwaway
// id so callers never have to handle a missing one.
func GetOrCreateID(ctx context.Context) string {
	conv, ok := ctx.Value(conversationKey{}).(*conversation)
	if !ok {
		return uuid.New().String()
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	if conv.id == "" {
		conv.id = uuid.New().String()
	}
	return conv.id
}

// ActiveConversationID returns the current id without creating one.
func ActiveConversationID(ctx context.Context) (string, bool) {
	conv, ok := ctx.Value(conversationKey{}).(*conversation)
	if !ok {
		return "", false
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.id, conv.id != ""
}

var conversationStarters = []string{
	"help me", "analyze", "fact-check", "investigate",
	"review", "check this", "what do you think",
}

// DetectConversationStart reports whether the user input looks like the
// beginning of a new conversation rather than a follow-up turn.
func DetectConversationStart(userInput string) bool {
	if userInput == "" {
		return false
	}

	if strings.Contains(userInput, "cofacts.tw/article/") {
		return true
	}
	if strings.Contains(userInput, "hackmd.io") {
		return true
	}

	lowered := strings.ToLower(userInput)
	for _, starter := range conversationStarters {
		if strings.Contains(lowered, starter) {
			return true
		}
	}
	return false
}

// ClassifyConversation categorizes a conversation-starting input by the
// service it references.
func ClassifyConversation(userInput string) string {
	switch {
	case strings.Contains(userInput, "cofacts.tw"):
		return "cofacts_factcheck"
	case strings.Contains(userInput, "hackmd.io"):
		return "hackmd_analysis"
	default:
		return "general_assistance"
	}
}

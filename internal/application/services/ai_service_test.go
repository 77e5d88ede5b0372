package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/llm"
)

func TestContainsAny(t *testing.T) {
	assert.True(t, containsAny("show me overdue work orders", "work order", "overdue"))
	assert.True(t, containsAny("what is the status of wo-00042?", "wo-"))
	assert.True(t, containsAny("any parts below reorder point?", "part", "reorder"))
	assert.False(t, containsAny("hello there", "work order", "part", "asset"))
}

func TestContextKeywordRouting(t *testing.T) {
	// Mirrors the routing in buildDataContext: which sections a message pulls in
	cases := []struct {
		message   string
		workOrder bool
		inventory bool
		asset     bool
	}{
		{"what's in my backlog?", true, false, false},
		{"do we need to reorder any spares?", false, true, false},
		{"which machines are down?", false, false, true},
		{"overdue work on the conveyor equipment", true, false, true},
		{"how do I reset my password?", false, false, false},
	}

	for _, tc := range cases {
		lower := strings.ToLower(tc.message)
		assert.Equal(t, tc.workOrder, containsAny(lower, "work order", "workorder", "overdue", "backlog", "wo-"), tc.message)
		assert.Equal(t, tc.inventory, containsAny(lower, "part", "stock", "inventory", "reorder", "spare"), tc.message)
		assert.Equal(t, tc.asset, containsAny(lower, "asset", "equipment", "machine", "downtime"), tc.message)
	}
}

func TestProvidersFixedOrder(t *testing.T) {
	s := &AIService{clients: map[string]llm.Client{
		constants.ProviderOllama:    nil,
		constants.ProviderOpenAI:    nil,
		constants.ProviderAnthropic: nil,
	}}

	// Iteration order of the map must not leak into the API
	assert.Equal(t, []string{constants.ProviderOpenAI, constants.ProviderAnthropic, constants.ProviderOllama}, s.Providers())
	assert.Equal(t, constants.ProviderOpenAI, s.defaultProvider())

	s = &AIService{clients: map[string]llm.Client{constants.ProviderGrok: nil}}
	assert.Equal(t, []string{constants.ProviderGrok}, s.Providers())
	assert.Equal(t, constants.ProviderGrok, s.defaultProvider())
}

func TestStartConversationTitle(t *testing.T) {
	s := &AIService{}

	conv, err := s.loadOrStartConversation(context.Background(), "user-1",
		ChatRequest{Message: "short question"}, constants.ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "short question", conv.Title)
	assert.Equal(t, "user-1", conv.UserID)
	assert.NotEmpty(t, conv.ID)

	long := strings.Repeat("x", 200)
	conv, err = s.loadOrStartConversation(context.Background(), "user-1",
		ChatRequest{Message: long}, constants.ProviderOpenAI)
	require.NoError(t, err)
	assert.Len(t, conv.Title, 80)
	assert.True(t, strings.HasSuffix(conv.Title, "..."))
}

func TestConversationTitleMultibyte(t *testing.T) {
	// Truncation must not cut a rune in half
	title := conversationTitle(strings.Repeat("压缩机过热", 40))
	assert.True(t, utf8.ValidString(title))
	assert.Equal(t, 80, utf8.RuneCountInString(title))
	assert.True(t, strings.HasSuffix(title, "..."))

	short := "où est la pièce détachée?"
	assert.Equal(t, short, conversationTitle(short))
}

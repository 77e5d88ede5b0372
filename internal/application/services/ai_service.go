package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/errors"
	"github.com/chatterfix/backend/pkg/llm"
	"github.com/chatterfix/backend/pkg/metrics"
	"github.com/chatterfix/backend/pkg/utils"
)

const systemPrompt = `You are ChatterFix, a maintenance management assistant.
You help technicians and managers with work orders, assets, preventive
maintenance, and spare parts inventory. Be concise and practical. When
maintenance data is provided in the context, ground your answers in it.`

// maxConversationTurns bounds how much history is replayed to the provider
const maxConversationTurns = 20

// AIService routes chat requests to the configured provider and grounds
// them with live maintenance data selected by keyword. Conversations are
// persisted per user so threads survive restarts.
type AIService struct {
	clients       map[string]llm.Client
	modelByProv   map[string]string
	conversations *persistence.ConversationRepository
	workOrders    *persistence.WorkOrderRepository
	parts         *persistence.PartRepository
	assets        *persistence.AssetRepository
}

// NewAIService builds clients for every provider with credentials present.
// Grok and Ollama reuse the OpenAI-compatible client with their own base
// URLs; Ollama needs no key.
func NewAIService(conversations *persistence.ConversationRepository, workOrders *persistence.WorkOrderRepository,
	parts *persistence.PartRepository, assets *persistence.AssetRepository) *AIService {
	s := &AIService{
		clients:       make(map[string]llm.Client),
		modelByProv:   make(map[string]string),
		conversations: conversations,
		workOrders:    workOrders,
		parts:         parts,
		assets:        assets,
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		s.clients[constants.ProviderOpenAI] = llm.NewOpenAIClient("", key)
		s.modelByProv[constants.ProviderOpenAI] = envOr("OPENAI_MODEL", "gpt-4o-mini")
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		model := os.Getenv("ANTHROPIC_MODEL")
		s.clients[constants.ProviderAnthropic] = llm.NewAnthropicClient(key, model)
		s.modelByProv[constants.ProviderAnthropic] = model
	}
	if key := os.Getenv("XAI_API_KEY"); key != "" {
		s.clients[constants.ProviderGrok] = llm.NewOpenAIClient("https://api.x.ai/v1/chat/completions", key)
		s.modelByProv[constants.ProviderGrok] = envOr("XAI_MODEL", "grok-2-latest")
	}
	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
		s.clients[constants.ProviderOllama] = llm.NewOpenAIClient(strings.TrimRight(base, "/")+"/v1/chat/completions", "")
		s.modelByProv[constants.ProviderOllama] = envOr("OLLAMA_MODEL", "llama3.1")
	}

	if len(s.clients) == 0 {
		log.Printf("⚠️ No AI providers configured; /api/ai/chat will return errors")
	} else {
		providers := make([]string, 0, len(s.clients))
		for p := range s.clients {
			providers = append(providers, p)
		}
		log.Printf("🤖 AI providers configured: %s", strings.Join(providers, ", "))
	}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ChatRequest is the payload for one assistant turn
type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	Provider       string `json:"provider"`
	ConversationID string `json:"conversation_id"`
}

// ChatResponse is one assistant reply with its conversation handle
type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Provider       string `json:"provider"`
	Reply          string `json:"reply"`
	TotalTokens    int    `json:"total_tokens,omitempty"`
}

// Providers lists the providers with credentials configured
func (s *AIService) Providers() []string {
	providers := make([]string, 0, len(s.clients))
	for _, p := range []string{constants.ProviderOpenAI, constants.ProviderAnthropic, constants.ProviderGrok, constants.ProviderOllama} {
		if _, ok := s.clients[p]; ok {
			providers = append(providers, p)
		}
	}
	return providers
}

// Chat runs one assistant turn: load or start the conversation, build the
// keyword-selected data context, call the provider, and persist the thread.
func (s *AIService) Chat(ctx context.Context, userID string, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.NewValidationError("message", "Message is required")
	}

	provider := req.Provider
	if provider == "" {
		provider = s.defaultProvider()
	}
	client, ok := s.clients[provider]
	if !ok {
		return nil, errors.NewValidationError("provider",
			fmt.Sprintf("Provider %q is not configured. Available: %s", provider, strings.Join(s.Providers(), ", ")))
	}

	conv, err := s.loadOrStartConversation(ctx, userID, req, provider)
	if err != nil {
		return nil, err
	}

	// One combined system message: the Anthropic adapter carries a single
	// system field, so the data context rides along with the prompt.
	system := systemPrompt
	if dataContext := s.buildDataContext(ctx, req.Message); dataContext != "" {
		system += "\n\nCurrent maintenance data:\n" + dataContext
	}
	messages := []llm.Message{{Role: "system", Content: system}}

	history := conv.Messages
	if len(history) > maxConversationTurns {
		history = history[len(history)-maxConversationTurns:]
	}
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: req.Message})

	resp, err := client.Chat(ctx, llm.Request{
		Model:       s.modelByProv[provider],
		Messages:    messages,
		Temperature: constants.DefaultAITemperature,
		MaxTokens:   constants.DefaultAIMaxTokens,
	})
	metrics.RecordAIRequest(provider, err)
	if err != nil {
		return nil, fmt.Errorf("provider %s error: %w", provider, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("provider %s returned no choices", provider)
	}
	reply := resp.Choices[0].Message.Content

	conv.Provider = provider
	conv.Messages = append(conv.Messages,
		models.ChatMessage{Role: "user", Content: req.Message},
		models.ChatMessage{Role: "assistant", Content: reply})
	if err := s.conversations.Upsert(ctx, conv); err != nil {
		log.Printf("⚠️ Failed to persist conversation %s: %v", conv.ID, err)
	}

	return &ChatResponse{
		ConversationID: conv.ID,
		Provider:       provider,
		Reply:          reply,
		TotalTokens:    resp.Usage.TotalTokens,
	}, nil
}

func (s *AIService) defaultProvider() string {
	for _, p := range []string{constants.ProviderOpenAI, constants.ProviderAnthropic, constants.ProviderGrok, constants.ProviderOllama} {
		if _, ok := s.clients[p]; ok {
			return p
		}
	}
	return constants.ProviderOpenAI
}

func (s *AIService) loadOrStartConversation(ctx context.Context, userID string, req ChatRequest, provider string) (*models.Conversation, error) {
	if req.ConversationID != "" {
		conv, err := s.conversations.FindByID(ctx, req.ConversationID, userID)
		if err != nil {
			return nil, err
		}
		if conv == nil {
			return nil, errors.NewNotFoundError("Conversation", req.ConversationID)
		}
		return conv, nil
	}

	return &models.Conversation{
		ID:       utils.GenerateID(),
		UserID:   userID,
		Title:    conversationTitle(req.Message),
		Provider: provider,
		Messages: []models.ChatMessage{},
	}, nil
}

// conversationTitle derives a title from the opening message. Truncation
// counts runes so multibyte input never persists as broken UTF-8.
func conversationTitle(message string) string {
	r := []rune(message)
	if len(r) <= 80 {
		return message
	}
	return string(r[:77]) + "..."
}

// buildDataContext selects live data to ground the reply based on keywords
// in the user message. Sections are capped so prompts stay small.
func (s *AIService) buildDataContext(ctx context.Context, message string) string {
	lower := strings.ToLower(message)
	var sections []string

	if containsAny(lower, "work order", "workorder", "overdue", "backlog", "wo-") {
		if section := s.workOrderContext(ctx); section != "" {
			sections = append(sections, section)
		}
	}
	if containsAny(lower, "part", "stock", "inventory", "reorder", "spare") {
		if section := s.inventoryContext(ctx); section != "" {
			sections = append(sections, section)
		}
	}
	if containsAny(lower, "asset", "equipment", "machine", "downtime") {
		if section := s.assetContext(ctx); section != "" {
			sections = append(sections, section)
		}
	}
	return strings.Join(sections, "\n")
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func (s *AIService) workOrderContext(ctx context.Context) string {
	orders, err := s.workOrders.ListActive(ctx)
	if err != nil {
		log.Printf("⚠️ AI context: failed to load work orders: %v", err)
		return ""
	}

	now := time.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "Active work orders: %d\n", len(orders))
	for i, w := range orders {
		if i >= 10 {
			fmt.Fprintf(&b, "... and %d more\n", len(orders)-i)
			break
		}
		overdue := ""
		if w.IsOverdue(now) {
			overdue = " (OVERDUE)"
		}
		fmt.Fprintf(&b, "- %s %s [%s/%s]%s\n", w.Number, w.Title, w.Status, w.Priority, overdue)
	}
	return b.String()
}

func (s *AIService) inventoryContext(ctx context.Context) string {
	parts, err := s.parts.ListLowStock(ctx)
	if err != nil {
		log.Printf("⚠️ AI context: failed to load low stock parts: %v", err)
		return ""
	}
	if len(parts) == 0 {
		return "Low stock parts: none\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Low stock parts: %d\n", len(parts))
	for i, p := range parts {
		if i >= 10 {
			fmt.Fprintf(&b, "... and %d more\n", len(parts)-i)
			break
		}
		fmt.Fprintf(&b, "- %s (%s): %d on hand, minimum %d\n", p.Name, p.PartNumber, p.Quantity, p.MinQuantity)
	}
	return b.String()
}

func (s *AIService) assetContext(ctx context.Context) string {
	counts, err := s.assets.CountByStatus(ctx)
	if err != nil {
		log.Printf("⚠️ AI context: failed to load asset counts: %v", err)
		return ""
	}

	var b strings.Builder
	b.WriteString("Assets by status:\n")
	for _, status := range []string{constants.AssetStatusOperational, constants.AssetStatusDegraded, constants.AssetStatusDown, constants.AssetStatusRetired} {
		if n, ok := counts[status]; ok {
			fmt.Fprintf(&b, "- %s: %d\n", status, n)
		}
	}
	return b.String()
}

// ListConversations returns the caller's conversation summaries
func (s *AIService) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

// GetConversation returns one conversation with its full message history
func (s *AIService) GetConversation(ctx context.Context, id, userID string) (*models.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, errors.NewNotFoundError("Conversation", id)
	}
	return conv, nil
}

// DeleteConversation removes one of the caller's conversations
func (s *AIService) DeleteConversation(ctx context.Context, id, userID string) error {
	if _, err := s.GetConversation(ctx, id, userID); err != nil {
		return err
	}
	return s.conversations.Delete(ctx, id, userID)
}

// PingProvider checks reachability of one provider, for the health report
func (s *AIService) PingProvider(ctx context.Context, provider string) error {
	client, ok := s.clients[provider]
	if !ok {
		return fmt.Errorf("provider %s not configured", provider)
	}
	return client.Ping(ctx)
}

package conversation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wearforce/convo-core/internal/apperr"
	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/persistence/databases"
)

const component = "conversation_manager"

// Manager is the ConversationManager: an in-memory sliding window per
// conversation, mirrored to a durable ConversationStore, with eviction of
// idle contexts from memory (never from the durable store).
type Manager struct {
	store databases.ConversationStore

	maxTurns        int
	idleEvict       time.Duration
	cleanupInterval time.Duration

	mu       sync.RWMutex
	contexts map[string]*Context

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Manager over the given durable store.
func New(store databases.ConversationStore, cfg config.ConversationConfig) *Manager {
	maxTurns := cfg.MaxTurnsInMemory
	if maxTurns <= 0 {
		maxTurns = 50
	}
	idle := time.Duration(cfg.IdleEvictSeconds) * time.Second
	if idle <= 0 {
		idle = time.Hour
	}
	cleanup := time.Duration(cfg.CleanupIntervalSeconds) * time.Second
	if cleanup <= 0 {
		cleanup = 5 * time.Minute
	}
	return &Manager{
		store:           store,
		maxTurns:        maxTurns,
		idleEvict:       idle,
		cleanupInterval: cleanup,
		contexts:        make(map[string]*Context),
	}
}

// Start launches the idle-eviction loop. Cancelling ctx, or calling Stop,
// ends it.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	go m.evictionLoop(ctx)
}

// Stop ends the eviction loop and waits up to timeout.
func (m *Manager) Stop(timeout time.Duration) {
	if m.cancel == nil {
		return
	}
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

func (m *Manager) evictionLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleEvict)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.contexts {
		if c.LastActivity.Before(cutoff) {
			delete(m.contexts, id)
		}
	}
}

// Create starts tracking a new conversation, or returns the existing one.
func (m *Manager) Create(conversationID string) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contexts[conversationID]; ok {
		return c
	}
	now := time.Now()
	c := &Context{ConversationID: conversationID, CreatedAt: now, LastActivity: now}
	m.contexts[conversationID] = c
	return c
}

// AddMessage appends a message to conversationID's window and durable
// store. Sequence is the message_count at insertion time; message_id is
// conversation_id + "_" + sequence.
func (m *Manager) AddMessage(ctx context.Context, conversationID, role, content string, opts MessageOptions) (Message, error) {
	m.mu.Lock()
	c, ok := m.contexts[conversationID]
	if !ok {
		now := time.Now()
		c = &Context{ConversationID: conversationID, CreatedAt: now, LastActivity: now}
		m.contexts[conversationID] = c
	}
	seq := c.MessageCount
	msg := Message{
		ID:             fmt.Sprintf("%s_%d", conversationID, seq),
		ConversationID: conversationID,
		Sequence:       seq,
		Role:           role,
		Content:        content,
		Intent:         opts.Intent,
		ToolName:       opts.ToolName,
		IsError:        opts.IsError,
		Metadata:       opts.Metadata,
		CreatedAt:      time.Now(),
	}
	c.MessageCount++
	c.LastActivity = msg.CreatedAt
	if opts.Intent != "" {
		c.LastIntent = opts.Intent
	}
	c.Messages = append(c.Messages, msg)
	if len(c.Messages) > m.maxTurns {
		c.Messages = c.Messages[len(c.Messages)-m.maxTurns:]
	}
	m.mu.Unlock()

	if m.store != nil {
		turn := databases.Turn{
			ConversationID: conversationID,
			Sequence:       seq,
			Role:           role,
			Content:        content,
			Metadata:       opts.Metadata,
			CreatedAt:      msg.CreatedAt,
		}
		if err := m.store.Append(ctx, turn); err != nil {
			return msg, apperr.Wrap(component, apperr.Transient, "persist turn", err)
		}
	}
	return msg, nil
}

// MessageOptions carries the routing metadata the orchestrator attaches to
// a message as it is appended.
type MessageOptions struct {
	Intent   string
	ToolName string
	IsError  bool
	Metadata map[string]string
}

// GetHistory returns up to limit most-recent messages, preferring the
// in-memory window and falling back to the durable store when the window
// doesn't cover the requested depth.
func (m *Manager) GetHistory(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	m.mu.RLock()
	c, ok := m.contexts[conversationID]
	var inMemory []Message
	if ok {
		inMemory = append(inMemory, c.Messages...)
	}
	m.mu.RUnlock()

	if ok && (limit <= 0 || len(inMemory) >= limit) {
		return tail(inMemory, limit), nil
	}

	if m.store == nil {
		return tail(inMemory, limit), nil
	}
	turns, err := m.store.Recent(ctx, conversationID, limit)
	if err != nil {
		return nil, apperr.Wrap(component, apperr.Transient, "load history", err)
	}
	out := make([]Message, len(turns))
	for i, t := range turns {
		out[i] = Message{
			ID:             fmt.Sprintf("%s_%d", t.ConversationID, t.Sequence),
			ConversationID: t.ConversationID,
			Sequence:       t.Sequence,
			Role:           t.Role,
			Content:        t.Content,
			Metadata:       t.Metadata,
			CreatedAt:      t.CreatedAt,
		}
	}
	return out, nil
}

func tail(messages []Message, limit int) []Message {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}

// UpdateTopic sets the conversation's current topic.
func (m *Manager) UpdateTopic(conversationID, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contexts[conversationID]
	if !ok {
		return apperr.New(component, apperr.NotFound, "conversation not active: "+conversationID)
	}
	c.Topic = topic
	return nil
}

// GetSummary computes analytics over the in-memory window: role
// distribution, average content length, intent-change count, distinct
// tools used and error rate.
func (m *Manager) GetSummary(conversationID string) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contexts[conversationID]
	if !ok {
		return Summary{}, apperr.New(component, apperr.NotFound, "conversation not active: "+conversationID)
	}

	roles := map[string]int{}
	toolSet := map[string]bool{}
	var totalLen, errCount, intentChanges int
	lastIntent := ""
	for i, msg := range c.Messages {
		roles[msg.Role]++
		totalLen += len(msg.Content)
		if msg.ToolName != "" {
			toolSet[msg.ToolName] = true
		}
		if msg.IsError {
			errCount++
		}
		if msg.Intent != "" && i > 0 && msg.Intent != lastIntent && lastIntent != "" {
			intentChanges++
		}
		if msg.Intent != "" {
			lastIntent = msg.Intent
		}
	}

	tools := make([]string, 0, len(toolSet))
	for t := range toolSet {
		tools = append(tools, t)
	}
	sort.Strings(tools)

	n := len(c.Messages)
	summary := Summary{
		ConversationID:   conversationID,
		MessageCount:     c.MessageCount,
		RoleDistribution: roles,
		IntentChanges:    intentChanges,
		ToolsUsed:        tools,
		Topic:            c.Topic,
		LastActivity:     c.LastActivity,
	}
	if n > 0 {
		summary.AvgContentLength = float64(totalLen) / float64(n)
		summary.ErrorRate = float64(errCount) / float64(n)
	}
	return summary, nil
}

// GetActive returns the conversation IDs currently held in memory.
func (m *Manager) GetActive() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.contexts))
	for id := range m.contexts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Delete removes a conversation from memory and the durable store.
func (m *Manager) Delete(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	delete(m.contexts, conversationID)
	m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, conversationID); err != nil {
		return apperr.Wrap(component, apperr.Transient, "delete conversation", err)
	}
	return nil
}

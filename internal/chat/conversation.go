package chat

import "sync"

// Conversation is an append-only list of turns kept in arrival order.
// It is safe for concurrent use.
type Conversation struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Append validates and stores a turn.
func (c *Conversation) Append(t Turn) error {
	if err := t.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.turns = append(c.turns, t)
	c.mu.Unlock()
	return nil
}

// Turns returns a copy of all turns.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Last returns the most recent turn.
func (c *Conversation) Last() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

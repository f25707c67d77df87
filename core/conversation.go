package orchestration

import (
	"sync"

	"github.com/jinzhu/copier"
	"github.com/kotonelabs/avatar-core/core/llms"
)

// conversation is the append-only transcript shared between the response
// pipeline and the orchestrator's callers.
type conversation struct {
	mu       sync.RWMutex
	messages []llms.Message
}

func newConversation(systemPrompt string) *conversation {
	c := &conversation{}
	if systemPrompt != "" {
		c.messages = append(c.messages, llms.Message{
			Role:    llms.MessageRoleSystem,
			Content: systemPrompt,
		})
	}
	return c
}

func (c *conversation) Append(message llms.Message) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
}

// Messages returns a snapshot of the transcript. The copy keeps callers
// from observing appends mid-iteration.
func (c *conversation) Messages() []llms.Message {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	messages := []llms.Message{}
	if err := copier.Copy(&messages, &c.messages); err != nil {
		return append([]llms.Message(nil), c.messages...)
	}
	return messages
}

package orchestration

import (
	"testing"

	"github.com/kotonelabs/avatar-core/core/llms"
)

func TestConversationStartsWithSystemPrompt(t *testing.T) {
	c := newConversation("you are an avatar")

	messages := c.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected only the system prompt, got %d messages", len(messages))
	}
	if messages[0].Role != llms.MessageRoleSystem || messages[0].Content != "you are an avatar" {
		t.Fatalf("unexpected system message %+v", messages[0])
	}
}

func TestConversationWithoutSystemPromptStartsEmpty(t *testing.T) {
	c := newConversation("")

	if got := c.Messages(); len(got) != 0 {
		t.Fatalf("expected empty transcript, got %d messages", len(got))
	}
}

func TestConversationSnapshotIsIsolatedFromAppends(t *testing.T) {
	c := newConversation("")
	c.Append(llms.Message{Role: llms.MessageRoleUser, Content: "hi"})

	snapshot := c.Messages()
	c.Append(llms.Message{Role: llms.MessageRoleAssistant, Content: "hello"})

	if len(snapshot) != 1 {
		t.Fatalf("expected snapshot to keep one message, got %d", len(snapshot))
	}
	if got := c.Messages(); len(got) != 2 {
		t.Fatalf("expected transcript to hold two messages, got %d", len(got))
	}
}

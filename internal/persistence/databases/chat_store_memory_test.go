package databases

import (
	"context"
	"testing"
	"time"
)

func TestMemoryConversationStore_AppendRecentDelete(t *testing.T) {
	t.Parallel()
	s := NewMemoryConversationStore()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		err := s.Append(ctx, Turn{
			ConversationID: "conv-1",
			Sequence:       i,
			Role:           "user",
			Content:        "hello",
			CreatedAt:      time.Now(),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	turns, err := s.Recent(ctx, "conv-1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Sequence != 2 || turns[1].Sequence != 3 {
		t.Fatalf("unexpected ordering: %#v", turns)
	}

	if err := s.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	turns, err = s.Recent(ctx, "conv-1", 10)
	if err != nil {
		t.Fatalf("recent after delete: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty after delete, got %d", len(turns))
	}
}

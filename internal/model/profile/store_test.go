package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFindByID(t *testing.T) {
	store := NewMemoryStore(Seed())

	got, ok := store.FindByID(AssistantID)
	require.True(t, ok)
	assert.Equal(t, "EduChat AI", got.Name)
	assert.Equal(t, "AI", got.AvatarFallback)

	_, ok = store.FindByID("missing")
	assert.False(t, ok)
}

func TestMemoryStoreListIsCopied(t *testing.T) {
	store := NewMemoryStore(Seed())

	list := store.List()
	list[0].Name = "mutated"

	got, _ := store.FindByID(UserID)
	assert.Equal(t, "User", got.Name)
}

func TestAssistantFallsBackToSeed(t *testing.T) {
	got := Assistant(NewMemoryStore(nil))
	assert.Equal(t, AssistantID, got.ID)
	assert.Equal(t, DefaultSystemPrompt, got.SystemPrompt)
}

package chat_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/digisaathi/server/internal/ai"
	"github.com/digisaathi/server/internal/chat"
	"github.com/digisaathi/server/internal/database/models"
	"github.com/digisaathi/server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator records prompts and returns a canned response or error.
type fakeGenerator struct {
	response     string
	err          error
	systemPrompt string
	userPrompt   string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestService_Chat(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	gen := &fakeGenerator{response: "Start with a small emergency fund."}
	svc := chat.NewService(tc.DB, gen, slog.Default())

	result, err := svc.Chat(testutil.TestContext(t), tc.User, chat.Input{Message: "How do I start saving?"})
	require.NoError(t, err)
	assert.Equal(t, "Start with a small emergency fund.", result.Response)

	// Exactly two rows: the inbound message and the generated reply.
	var messages []models.ChatMessage
	require.NoError(t, tc.DB.Where("owner_id = ?", tc.User.ID).Order("created_at ASC").Find(&messages).Error)
	require.Len(t, messages, 2)

	assert.Equal(t, "How do I start saving?", messages[0].Message)
	assert.True(t, messages[0].IsFromUser)
	assert.Equal(t, "Start with a small emergency fund.", messages[1].Message)
	assert.False(t, messages[1].IsFromUser)
}

func TestService_Chat_PromptComposition(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	gen := &fakeGenerator{response: "ok"}
	svc := chat.NewService(tc.DB, gen, slog.Default())

	_, err := svc.Chat(testutil.TestContext(t), tc.User, chat.Input{
		Message:  "What is UPI?",
		Language: "hi",
	})
	require.NoError(t, err)

	assert.Contains(t, gen.systemPrompt, "financial literacy assistant")
	assert.Contains(t, gen.userPrompt, tc.User.FullName)
	assert.Contains(t, gen.userPrompt, "What is UPI?")
	assert.Contains(t, gen.userPrompt, `"hi"`)
}

func TestService_Chat_NoLanguageClauseForDefault(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	gen := &fakeGenerator{response: "ok"}
	svc := chat.NewService(tc.DB, gen, slog.Default())

	_, err := svc.Chat(testutil.TestContext(t), tc.User, chat.Input{Message: "hello"})
	require.NoError(t, err)
	assert.False(t, strings.Contains(gen.userPrompt, "language with code"))
}

func TestService_Chat_GenerationFailureLeavesNoRows(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	gen := &fakeGenerator{err: ai.ErrUnavailable}
	svc := chat.NewService(tc.DB, gen, slog.Default())

	_, err := svc.Chat(testutil.TestContext(t), tc.User, chat.Input{Message: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, chat.ErrGeneration)

	// The inbound row is compensated away; the turn never half-exists.
	var count int64
	require.NoError(t, tc.DB.Model(&models.ChatMessage{}).Where("owner_id = ?", tc.User.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestService_Chat_StorageFailure(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	gen := &fakeGenerator{response: "ok"}
	svc := chat.NewService(tc.DB, gen, slog.Default())

	// Closing the underlying connection makes the first write fail.
	sqlDB, err := tc.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.Chat(context.Background(), tc.User, chat.Input{Message: "hello"})
	assert.ErrorIs(t, err, chat.ErrStorage)
}

func TestService_History(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	gen := &fakeGenerator{response: "reply"}
	svc := chat.NewService(tc.DB, gen, slog.Default())
	ctx := testutil.TestContext(t)

	_, err := svc.Chat(ctx, tc.User, chat.Input{Message: "first"})
	require.NoError(t, err)
	_, err = svc.Chat(ctx, tc.User, chat.Input{Message: "second"})
	require.NoError(t, err)

	messages, err := svc.History(ctx, tc.User, 0, 10)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "first", messages[0].Message)

	// Another user sees nothing.
	other := testutil.CreateTestUser(t, tc.DB)
	messages, err = svc.History(ctx, other, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

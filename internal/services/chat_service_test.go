package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/apperr"
	"github.com/markdave123-py/AskNest/internal/core/llm"
	"github.com/markdave123-py/AskNest/internal/models"
	"github.com/markdave123-py/AskNest/internal/services"
	"github.com/markdave123-py/AskNest/internal/testutil"
)

func TestAsk_UsesOrganizationFAQs(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	_, err := store.CreateUser(ctx, &models.User{Email: bob.Email, Role: models.RoleMember, OrganizationID: "org-a"})
	require.NoError(t, err)
	_, err = store.CreateFAQ(ctx, &models.FAQ{Question: "What are your hours?", Answer: "We are open 9-5.", OrganizationID: "org-a"})
	require.NoError(t, err)
	_, err = store.CreateFAQ(ctx, &models.FAQ{Question: "Secret?", Answer: "Other tenant.", OrganizationID: "org-b"})
	require.NoError(t, err)

	model := &testutil.ScriptedLLM{Reply: "We are open 9-5."}
	svc := services.NewChatService(store, llm.NewFAQClient(model, zap.NewNop()), fastRetry, zap.NewNop())

	answer, err := svc.Ask(ctx, bob, "When are you open?")
	require.NoError(t, err)

	assert.Equal(t, "We are open 9-5.", answer)
	require.Equal(t, 1, model.Calls())
	assert.Contains(t, model.Prompts[0], "Q: What are your hours?\nA: We are open 9-5.")
	assert.Contains(t, model.Prompts[0], "When are you open?")
	assert.NotContains(t, model.Prompts[0], "Other tenant.")
}

func TestAsk_ModelFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	_, err := store.CreateUser(ctx, &models.User{Email: bob.Email, Role: models.RoleMember, OrganizationID: "org-a"})
	require.NoError(t, err)

	model := &testutil.ScriptedLLM{Err: errors.New("quota")}
	svc := services.NewChatService(store, llm.NewFAQClient(model, zap.NewNop()), fastRetry, zap.NewNop())

	answer, err := svc.Ask(ctx, bob, "Anything?")
	require.NoError(t, err)
	assert.Equal(t, llm.AnswerFallback, answer)
}

func TestAsk_Rejections(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := services.NewChatService(store, llm.NewFAQClient(&testutil.ScriptedLLM{}, zap.NewNop()), fastRetry, zap.NewNop())

	_, err := svc.Ask(context.Background(), bob, "  ")
	assert.Equal(t, 400, apperr.StatusOf(err))

	_, err = svc.Ask(context.Background(), bob, "Hello?")
	assert.Equal(t, 403, apperr.StatusOf(err))

	_, err = svc.Ask(context.Background(), models.Principal{}, "Hello?")
	assert.Equal(t, 401, apperr.StatusOf(err))
}

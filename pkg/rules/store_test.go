package rules

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
)

type stubRuleRepository struct {
	records []*models.RuleRecord
	err     error
	calls   int
}

func (s *stubRuleRepository) ActiveRules(_ context.Context) ([]*models.RuleRecord, error) {
	s.calls++

	if s.err != nil {
		return nil, s.err
	}

	return s.records, nil
}

func (s *stubRuleRepository) SaveRule(_ context.Context, _ *models.RuleRecord) error {
	return nil
}

func record(code, conditions string, action models.RuleAction, priority int) *models.RuleRecord {
	return &models.RuleRecord{
		Code:       code,
		Conditions: json.RawMessage(conditions),
		Action:     action,
		Priority:   priority,
		Active:     true,
		Version:    "1.0",
	}
}

func TestStoreLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads and sorts by priority", func(t *testing.T) {
		t.Parallel()

		repo := &stubRuleRepository{records: []*models.RuleRecord{
			record("SECOND", `{}`, models.RuleActionAllow, 5),
			record("FIRST", `{}`, models.RuleActionDeny, 1),
		}}
		store := NewStore(repo, slog.Default())

		require.NoError(t, store.Load(context.Background()))

		rules, err := store.Rules(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, "FIRST", rules[0].Code)
		assert.Equal(t, "SECOND", rules[1].Code)
		assert.False(t, store.LoadedAt().IsZero())
	})

	t.Run("skips malformed conditions without aborting", func(t *testing.T) {
		t.Parallel()

		repo := &stubRuleRepository{records: []*models.RuleRecord{
			record("BROKEN", `{"leaveDays":{"$unknown":1}}`, models.RuleActionDeny, 1),
			record("ALSO_BROKEN", `{"recordStatus":{"$in":"APPROVED"}}`, models.RuleActionDeny, 2),
			record("GOOD", `{"userRole":"ADMIN"}`, models.RuleActionAllow, 3),
		}}
		store := NewStore(repo, slog.Default())

		require.NoError(t, store.Load(context.Background()))

		rules, err := store.Rules(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "GOOD", rules[0].Code)
	})

	t.Run("failed reload keeps the previous snapshot", func(t *testing.T) {
		t.Parallel()

		repo := &stubRuleRepository{records: []*models.RuleRecord{
			record("GOOD", `{}`, models.RuleActionAllow, 1),
		}}
		store := NewStore(repo, slog.Default())
		require.NoError(t, store.Load(context.Background()))

		repo.err = errors.New("connection refused")

		err := store.Load(context.Background())
		require.Error(t, err)
		assert.True(t, persistence.IsStoreUnavailable(err))

		rules, err := store.Rules(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, rules, 1)
	})

	t.Run("first load failure surfaces store unavailable", func(t *testing.T) {
		t.Parallel()

		repo := &stubRuleRepository{err: errors.New("connection refused")}
		store := NewStore(repo, slog.Default())

		_, err := store.Rules(context.Background(), "")
		require.Error(t, err)
		assert.True(t, persistence.IsStoreUnavailable(err))
	})
}

func TestStoreRulesCodeFilter(t *testing.T) {
	t.Parallel()

	repo := &stubRuleRepository{records: []*models.RuleRecord{
		record("ADMIN_FULL_ACCESS", `{"userRole":"ADMIN"}`, models.RuleActionAllow, 1),
		record("OTP_RATE_LIMIT", `{}`, models.RuleActionDeny, 2),
	}}
	store := NewStore(repo, slog.Default())

	t.Run("known code restricts the set", func(t *testing.T) {
		rules, err := store.Rules(context.Background(), "OTP_RATE_LIMIT")
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "OTP_RATE_LIMIT", rules[0].Code)
	})

	t.Run("unknown code falls back to the full set", func(t *testing.T) {
		rules, err := store.Rules(context.Background(), "NOT_A_RULE")
		require.NoError(t, err)
		assert.Len(t, rules, 2)
	})
}

func TestStoreInvalidate(t *testing.T) {
	t.Parallel()

	repo := &stubRuleRepository{records: []*models.RuleRecord{
		record("GOOD", `{}`, models.RuleActionAllow, 1),
	}}
	store := NewStore(repo, slog.Default())

	_, err := store.Rules(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	// Cached snapshot serves reads without touching the repository.
	_, err = store.Rules(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	store.Invalidate()

	_, err = store.Rules(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/signalement-service/internal/domain"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

func TestEnsureIsIdempotent(t *testing.T) {
	f := newFixture()
	user := f.store.addUser("alice", "alice@example.com", "x")
	sig := createReport(t, f, user.ID)

	first, err := f.validations.Ensure(context.Background(), sig.ID)
	require.NoError(t, err)
	second, err := f.validations.Ensure(context.Background(), sig.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.store.validations, 1)
}

func TestChangeStatusAppendsHistoryNewestFirst(t *testing.T) {
	f := newFixture()
	user := f.store.addUser("alice", "alice@example.com", "x")
	sig := createReport(t, f, user.ID)

	approved := f.store.vstatusIDByName(domain.ValidationApproved)
	rejected := f.store.vstatusIDByName(domain.ValidationRejected)

	note := "looks legitimate"
	validation, err := f.validations.ChangeStatus(context.Background(), sig.ID, approved, &user.ID, &note)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationApproved, validation.StatusName)
	require.NotNil(t, validation.ValidatedAt)
	require.NotNil(t, validation.ValidatedByID)
	assert.Equal(t, user.ID, *validation.ValidatedByID)

	validation, err = f.validations.ChangeStatus(context.Background(), sig.ID, rejected, &user.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationRejected, validation.StatusName)

	history, err := f.validations.History(context.Background(), sig.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	require.NotNil(t, history[0].FromStatusName)
	assert.Equal(t, domain.ValidationApproved, *history[0].FromStatusName)
	assert.Equal(t, domain.ValidationRejected, history[0].ToStatusName)

	require.NotNil(t, history[1].FromStatusName)
	assert.Equal(t, domain.ValidationPending, *history[1].FromStatusName)
	assert.Equal(t, domain.ValidationApproved, history[1].ToStatusName)
}

func TestChangeStatusToleratesUnknownChanger(t *testing.T) {
	f := newFixture()
	user := f.store.addUser("alice", "alice@example.com", "x")
	sig := createReport(t, f, user.ID)

	approved := f.store.vstatusIDByName(domain.ValidationApproved)
	unknown := int64(9999)
	validation, err := f.validations.ChangeStatus(context.Background(), sig.ID, approved, &unknown, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationApproved, validation.StatusName)
	assert.Nil(t, validation.ValidatedByID)
}

func TestChangeStatusUnknownTargetsAreNotFound(t *testing.T) {
	f := newFixture()
	user := f.store.addUser("alice", "alice@example.com", "x")
	sig := createReport(t, f, user.ID)

	_, err := f.validations.ChangeStatus(context.Background(), 42, 1, &user.ID, nil)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = f.validations.ChangeStatus(context.Background(), sig.ID, 9999, &user.ID, nil)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestEnsureResolvesDuplicateInsertRace(t *testing.T) {
	f := newFixture()
	user := f.store.addUser("alice", "alice@example.com", "x")
	sig, err := f.signalements.Create(context.Background(), SignalementCreateInput{
		UserID:      user.ID,
		Latitude:    1,
		Longitude:   2,
		Description: "crack",
	})
	require.NoError(t, err)

	// a second ensure after the row exists must take the already-ensured
	// branch, not fail on the unique violation
	validation, err := f.validations.Ensure(context.Background(), sig.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationPending, validation.StatusName)
	assert.Len(t, f.store.validations, 1)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/signalement-service/internal/config"
	"github.com/spec-kit/signalement-service/internal/domain"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

func newSyncFixture(t *testing.T) (*fixture, *SyncService) {
	t.Helper()
	f := newFixture()
	cfg := &config.Config{
		Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost},
		Mirror: config.MirrorConfig{
			SignalementCollection: "signalements",
			UserCollection:        "users",
			PushTokenCollection:   "user_tokens",
		},
	}
	svc := NewSyncService(cfg, SyncDependencies{
		SignalementRepo: memSignalementRepo{f.store},
		StatusRepo:      memStatusRepo{f.store},
		UserRepo:        memUserRepo{f.store},
		TypeUserRepo:    memTypeUserRepo{f.store},
		Validations:     f.validations,
		Store:           f.mirror,
	}, zap.NewNop())
	return f, svc
}

func remoteReport(t *testing.T, f *fixture, docID string) {
	t.Helper()
	err := f.mirror.Set(context.Background(), "signalements", docID, map[string]any{
		"latitude":    48.85,
		"longitude":   2.35,
		"description": "pothole",
		"status":      domain.StatusNouveau,
		"email":       "bob@example.com",
		"displayName": "Bob",
	})
	require.NoError(t, err)
}

func TestPullCreatesLocalReportWithPendingValidation(t *testing.T) {
	f, svc := newSyncFixture(t)
	remoteReport(t, f, "remote-1")

	result, err := svc.PullSignalements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Errors)

	sig, err := memSignalementRepo{f.store}.GetByMirrorDocID(context.Background(), "remote-1")
	require.NoError(t, err)
	assert.Equal(t, 48.85, sig.Latitude)
	assert.Equal(t, "pothole", sig.Description)
	assert.Equal(t, domain.StatusNouveau, sig.StatusName)

	validation, err := f.validations.GetBySignalement(context.Background(), sig.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationPending, validation.StatusName)

	// the synced marker goes back to the remote document
	doc, err := f.mirror.Get(context.Background(), "signalements", "remote-1")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.GetString("syncedToLocalAt"))

	// the importing side synthesized a local account for the remote identity
	user, err := memUserRepo{f.store}.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestPullUnchangedDocumentIsSkipped(t *testing.T) {
	f, svc := newSyncFixture(t)
	remoteReport(t, f, "remote-1")

	_, err := svc.PullSignalements(context.Background())
	require.NoError(t, err)

	result, err := svc.PullSignalements(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Updated)
	assert.Equal(t, 1, result.Skipped)
}

func TestPullAppliesRemoteFieldChanges(t *testing.T) {
	f, svc := newSyncFixture(t)
	remoteReport(t, f, "remote-1")

	_, err := svc.PullSignalements(context.Background())
	require.NoError(t, err)

	err = f.mirror.Update(context.Background(), "signalements", "remote-1", map[string]any{
		"description": "pothole widened",
		"status":      domain.StatusEnCours,
		"budget":      2500.0,
	})
	require.NoError(t, err)

	result, err := svc.PullSignalements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	sig, err := memSignalementRepo{f.store}.GetByMirrorDocID(context.Background(), "remote-1")
	require.NoError(t, err)
	assert.Equal(t, "pothole widened", sig.Description)
	assert.Equal(t, domain.StatusEnCours, sig.StatusName)
	require.NotNil(t, sig.Budget)
	assert.Equal(t, 2500.0, *sig.Budget)
}

func TestPullSkipsDocumentMissingRequiredFields(t *testing.T) {
	f, svc := newSyncFixture(t)
	err := f.mirror.Set(context.Background(), "signalements", "broken", map[string]any{
		"latitude":  48.85,
		"longitude": 2.35,
		// no description
		"email": "bob@example.com",
	})
	require.NoError(t, err)
	remoteReport(t, f, "remote-1")

	result, err := svc.PullSignalements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, f.store.signalements, 1)
}

func TestPullAbortsWhenStoreUnavailable(t *testing.T) {
	f, svc := newSyncFixture(t)
	f.mirror.queryErr = errors.New("connection refused")

	_, err := svc.PullSignalements(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "EXTERNAL_UNAVAILABLE"))
}

func TestPushCreatesDocumentAndPersistsLink(t *testing.T) {
	f, svc := newSyncFixture(t)
	user := f.store.addUser("alice", "alice@example.com", "x")
	sig := createReport(t, f, user.ID)

	result, err := svc.PushSignalements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	stored := f.store.signalements[sig.ID]
	require.NotNil(t, stored.MirrorDocID)

	doc, err := f.mirror.Get(context.Background(), "signalements", *stored.MirrorDocID)
	require.NoError(t, err)
	assert.Equal(t, "pothole", doc.GetString("description"))
	assert.Equal(t, "alice@example.com", doc.GetString("email"))
}

func TestPushIdenticalDocumentIsSkipped(t *testing.T) {
	f, svc := newSyncFixture(t)
	user := f.store.addUser("alice", "alice@example.com", "x")
	createReport(t, f, user.ID)

	_, err := svc.PushSignalements(context.Background())
	require.NoError(t, err)

	result, err := svc.PushSignalements(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Updated)
	assert.Equal(t, 1, result.Skipped)
}

func TestPushRecreatesOutOfBandDeletedDocument(t *testing.T) {
	f, svc := newSyncFixture(t)
	user := f.store.addUser("alice", "alice@example.com", "x")
	sig := createReport(t, f, user.ID)

	_, err := svc.PushSignalements(context.Background())
	require.NoError(t, err)
	docID := *f.store.signalements[sig.ID].MirrorDocID

	f.mirror.mu.Lock()
	delete(f.mirror.collections["signalements"], docID)
	f.mirror.mu.Unlock()

	result, err := svc.PushSignalements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	doc, err := f.mirror.Get(context.Background(), "signalements", docID)
	require.NoError(t, err)
	assert.Equal(t, "pothole", doc.GetString("description"))
}

func TestPushUsersMirrorsAccountsByEmailSlug(t *testing.T) {
	f, svc := newSyncFixture(t)
	f.store.addUser("alice", "alice@example.com", "x")
	f.store.addUser("bob", "bob@example.com", "x")

	result, err := svc.PushUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	result, err = svc.PushUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)

	doc, err := f.mirror.Get(context.Background(), "users", "alice-example-com")
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.GetString("username"))
}

func TestEnsureLocalUserResolvesRepeatedUsernameCollisions(t *testing.T) {
	f, svc := newSyncFixture(t)
	f.store.addUser("jean", "jean@example.com", "x")
	f.store.addUser("jean-abc123", "jean.second@example.com", "x")

	user, err := svc.ensureLocalUser(context.Background(), "jean.third@example.com", "Jean", "ABC123XYZ")
	require.NoError(t, err)
	assert.NotEqual(t, "jean", user.Username)
	assert.NotEqual(t, "jean-abc123", user.Username)
	assert.True(t, strings.HasPrefix(user.Username, "jean-"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "jean-dupont", slugify("  Jean Dupont "))
	assert.Equal(t, "rue-du-pont-75", slugify("Rue du Pont, 75!"))
	assert.Equal(t, "", slugify("---"))
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/signalement-service/internal/auth"
	"github.com/spec-kit/signalement-service/internal/config"
	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/mirror"
	"github.com/spec-kit/signalement-service/internal/repository"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

// SyncResult summarizes one reconciliation batch.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// SyncService reconciles local reports with their remote document mirror in
// both directions. Directions run to completion within the triggering call;
// a crash mid-batch is safe because every step is idempotent. Failures on a
// single document are counted and never abort the rest of the batch.
type SyncService struct {
	signalements repository.SignalementRepository
	statuses     repository.StatusRepository
	users        repository.UserRepository
	typeUsers    repository.TypeUserRepository
	validations  *ValidationService
	store        mirror.Store
	cfg          config.MirrorConfig
	bcryptCost   int
	logger       *zap.Logger
}

// SyncDependencies bundles collaborators for the reconciliation engine.
type SyncDependencies struct {
	SignalementRepo repository.SignalementRepository
	StatusRepo      repository.StatusRepository
	UserRepo        repository.UserRepository
	TypeUserRepo    repository.TypeUserRepository
	Validations     *ValidationService
	Store           mirror.Store
}

// NewSyncService constructs the service.
func NewSyncService(cfg *config.Config, deps SyncDependencies, logger *zap.Logger) *SyncService {
	return &SyncService{
		signalements: deps.SignalementRepo,
		statuses:     deps.StatusRepo,
		users:        deps.UserRepo,
		typeUsers:    deps.TypeUserRepo,
		validations:  deps.Validations,
		store:        deps.Store,
		cfg:          cfg.Mirror,
		bcryptCost:   cfg.Auth.BcryptCost,
		logger:       logger,
	}
}

// PullSignalements imports every remote document into the local store,
// classifying each as created, updated or skipped by field-level diff.
// A store that cannot be queried at all aborts the batch.
func (s *SyncService) PullSignalements(ctx context.Context) (*SyncResult, error) {
	docs, err := s.store.QueryAll(ctx, s.cfg.SignalementCollection)
	if err != nil {
		return nil, apperrors.NewExternalUnavailable("mirror store", err)
	}

	result := &SyncResult{}
	for _, doc := range docs {
		outcome, err := s.pullOne(ctx, doc)
		if err != nil {
			result.Errors++
			s.logger.Warn("pull: document failed",
				zap.String("doc_id", doc.ID),
				zap.Error(err))
			continue
		}
		outcome.apply(result)
	}
	return result, nil
}

type syncOutcome int

const (
	outcomeCreated syncOutcome = iota
	outcomeUpdated
	outcomeSkipped
)

func (o syncOutcome) apply(result *SyncResult) {
	switch o {
	case outcomeCreated:
		result.Created++
	case outcomeUpdated:
		result.Updated++
	case outcomeSkipped:
		result.Skipped++
	}
}

func (s *SyncService) pullOne(ctx context.Context, doc mirror.Document) (syncOutcome, error) {
	local, err := s.signalements.GetByMirrorDocID(ctx, doc.ID)
	if err != nil && err != pgx.ErrNoRows {
		return outcomeSkipped, err
	}
	if err == pgx.ErrNoRows {
		return s.pullCreate(ctx, doc)
	}
	return s.pullUpdate(ctx, doc, local)
}

func (s *SyncService) pullCreate(ctx context.Context, doc mirror.Document) (syncOutcome, error) {
	lat, latOK := doc.GetFloat("latitude")
	lng, lngOK := doc.GetFloat("longitude")
	description := doc.GetString("description")
	if !latOK || !lngOK || description == "" {
		// required fields absent: reject the document, create nothing
		return outcomeSkipped, nil
	}

	user, err := s.ensureLocalUser(ctx, doc.GetString("email"), doc.GetString("displayName"), doc.GetString("uid"))
	if err != nil {
		return outcomeSkipped, err
	}
	status, err := s.statusByNameOrCreate(ctx, doc.GetString("status"))
	if err != nil {
		return outcomeSkipped, err
	}

	docID := doc.ID
	sig := &domain.Signalement{
		UserID:      user.ID,
		StatusID:    status.ID,
		StatusName:  status.Name,
		Latitude:    lat,
		Longitude:   lng,
		Description: description,
		SurfaceArea: docFloatPtr(doc, "surfaceArea"),
		Budget:      docFloatPtr(doc, "budget"),
		PhotoURL:    docStringPtr(doc, "photoUrl"),
		MirrorDocID: &docID,
		UserUID:     docStringPtr(doc, "uid"),
	}
	if err := s.signalements.Create(ctx, sig); err != nil {
		return outcomeSkipped, err
	}
	if _, err := s.validations.Ensure(ctx, sig.ID); err != nil {
		return outcomeSkipped, err
	}

	s.markSynced(ctx, doc.ID, sig.ID)
	return outcomeCreated, nil
}

func (s *SyncService) pullUpdate(ctx context.Context, doc mirror.Document, local *domain.Signalement) (syncOutcome, error) {
	user, err := s.ensureLocalUser(ctx, doc.GetString("email"), doc.GetString("displayName"), doc.GetString("uid"))
	if err != nil {
		return outcomeSkipped, err
	}
	status, err := s.statusByNameOrCreate(ctx, doc.GetString("status"))
	if err != nil {
		return outcomeSkipped, err
	}

	changed := false
	if lat, ok := doc.GetFloat("latitude"); ok && lat != local.Latitude {
		local.Latitude = lat
		changed = true
	}
	if lng, ok := doc.GetFloat("longitude"); ok && lng != local.Longitude {
		local.Longitude = lng
		changed = true
	}
	if description := doc.GetString("description"); description != "" && description != local.Description {
		local.Description = description
		changed = true
	}
	if status.ID != local.StatusID {
		local.StatusID = status.ID
		local.StatusName = status.Name
		changed = true
	}
	if user.ID != local.UserID {
		local.UserID = user.ID
		changed = true
	}
	if uid := docStringPtr(doc, "uid"); !equalStringPtr(uid, local.UserUID) && uid != nil {
		local.UserUID = uid
		changed = true
	}
	if area := docFloatPtr(doc, "surfaceArea"); area != nil && !equalFloatPtr(area, local.SurfaceArea) {
		local.SurfaceArea = area
		changed = true
	}
	if budget := docFloatPtr(doc, "budget"); budget != nil && !equalFloatPtr(budget, local.Budget) {
		local.Budget = budget
		changed = true
	}
	if photo := docStringPtr(doc, "photoUrl"); photo != nil && !equalStringPtr(photo, local.PhotoURL) {
		local.PhotoURL = photo
		changed = true
	}

	if !changed {
		return outcomeSkipped, nil
	}

	if err := s.signalements.Update(ctx, local); err != nil {
		return outcomeSkipped, err
	}
	if _, err := s.validations.Ensure(ctx, local.ID); err != nil {
		return outcomeSkipped, err
	}

	s.markSynced(ctx, doc.ID, local.ID)
	return outcomeUpdated, nil
}

// PushSignalements exports every local report to the remote mirror. A report
// whose linked document was deleted out-of-band is recreated at the same doc
// id and counted as updated; remote documents equal to their local record
// are skipped to avoid needless remote writes.
func (s *SyncService) PushSignalements(ctx context.Context) (*SyncResult, error) {
	locals, err := s.signalements.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for i := range locals {
		outcome, err := s.pushOne(ctx, &locals[i])
		if err != nil {
			result.Errors++
			s.logger.Warn("push: signalement failed",
				zap.Int64("signalement_id", locals[i].ID),
				zap.Error(err))
			continue
		}
		outcome.apply(result)
	}
	return result, nil
}

func (s *SyncService) pushOne(ctx context.Context, sig *domain.Signalement) (syncOutcome, error) {
	data, err := s.signalementDocument(ctx, sig)
	if err != nil {
		return outcomeSkipped, err
	}

	if sig.MirrorDocID == nil {
		docID, err := s.store.Create(ctx, s.cfg.SignalementCollection, data)
		if err != nil {
			return outcomeSkipped, err
		}
		sig.MirrorDocID = &docID
		if err := s.signalements.Update(ctx, sig); err != nil {
			return outcomeSkipped, err
		}
		return outcomeCreated, nil
	}

	remote, err := s.store.Get(ctx, s.cfg.SignalementCollection, *sig.MirrorDocID)
	if err == nil && signalementFieldsEqual(remote, sig) {
		return outcomeSkipped, nil
	}
	if err != nil && err != mirror.ErrNotFound {
		return outcomeSkipped, err
	}
	// ErrNotFound means the document vanished out-of-band; Set recreates it
	// at the same id either way.
	if err := s.store.Set(ctx, s.cfg.SignalementCollection, *sig.MirrorDocID, data); err != nil {
		return outcomeSkipped, err
	}
	return outcomeUpdated, nil
}

// PushUsers mirrors local accounts to the remote user collection, keyed by
// slugified email.
func (s *SyncService) PushUsers(ctx context.Context) (*SyncResult, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for i := range users {
		user := &users[i]
		docID := slugify(user.Email)
		data := map[string]any{
			"username": user.Username,
			"email":    user.Email,
			"typeUser": user.TypeUserName,
			"blocked":  user.IsBlocked,
		}
		_, err := s.store.Get(ctx, s.cfg.UserCollection, docID)
		switch {
		case err == mirror.ErrNotFound:
			if err := s.store.Set(ctx, s.cfg.UserCollection, docID, data); err != nil {
				result.Errors++
				continue
			}
			result.Created++
		case err != nil:
			result.Errors++
			s.logger.Warn("push: user failed", zap.Int64("user_id", user.ID), zap.Error(err))
		default:
			if err := s.store.Set(ctx, s.cfg.UserCollection, docID, data); err != nil {
				result.Errors++
				continue
			}
			result.Updated++
		}
	}
	return result, nil
}

// markSynced writes the synced marker back to the remote document.
// Best-effort: a failure is logged and not counted against the batch.
func (s *SyncService) markSynced(ctx context.Context, docID string, localID int64) {
	patch := map[string]any{
		"syncedToLocalAt": time.Now().UTC().Format(time.RFC3339),
		"localId":         localID,
	}
	if err := s.store.Update(ctx, s.cfg.SignalementCollection, docID, patch); err != nil {
		s.logger.Warn("pull: synced marker not written",
			zap.String("doc_id", docID),
			zap.Error(err))
	}
}

// ensureLocalUser resolves the local account for a remote identity, creating
// it when absent. The synthesized username is the slugified display name (or
// email local-part), disambiguated with a uid or time suffix on collision.
func (s *SyncService) ensureLocalUser(ctx context.Context, email, displayName, uid string) (*domain.User, error) {
	if email == "" {
		switch {
		case uid != "":
			email = uid + "@mirror.local"
		case displayName != "":
			email = slugify(displayName) + "@mirror.local"
		default:
			return nil, fmt.Errorf("remote identity carries no email, uid or display name")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	base := displayName
	if base == "" {
		base = strings.SplitN(email, "@", 2)[0]
	}
	slug := slugify(base)
	username := slug
	for attempt := 0; ; attempt++ {
		_, err := s.users.GetByUsername(ctx, username)
		if err == pgx.ErrNoRows {
			break
		}
		if err != nil {
			return nil, err
		}
		// taken: disambiguate with the uid suffix first, then random suffixes
		// until one is free
		if attempt == 0 {
			username = slug + "-" + usernameSuffix(uid)
		} else {
			username = slug + "-" + strings.ToLower(uuid.NewString()[:6])
		}
	}

	typeUser, err := s.typeUsers.GetByName(ctx, domain.TypeUserUser)
	if err != nil {
		return nil, err
	}
	// remote-originated accounts never log in locally; an unguessable
	// placeholder satisfies the non-null hash
	hash, err := auth.HashPassword(uuid.NewString(), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user = &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		TypeUserID:   typeUser.ID,
		TypeUserName: typeUser.Name,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *SyncService) statusByNameOrCreate(ctx context.Context, name string) (*domain.Status, error) {
	if name == "" {
		name = domain.StatusNouveau
	}
	status, err := s.statuses.GetByName(ctx, name)
	if err == nil {
		return status, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}
	status = &domain.Status{Name: name}
	if err := s.statuses.Create(ctx, status); err != nil {
		return nil, err
	}
	return status, nil
}

func (s *SyncService) signalementDocument(ctx context.Context, sig *domain.Signalement) (map[string]any, error) {
	user, err := s.users.GetByID(ctx, sig.UserID)
	if err != nil {
		return nil, err
	}
	data := map[string]any{
		"latitude":    sig.Latitude,
		"longitude":   sig.Longitude,
		"description": sig.Description,
		"status":      sig.StatusName,
		"email":       user.Email,
		"displayName": user.Username,
		"localId":     sig.ID,
	}
	if sig.UserUID != nil {
		data["uid"] = *sig.UserUID
	}
	if sig.SurfaceArea != nil {
		data["surfaceArea"] = *sig.SurfaceArea
	}
	if sig.Budget != nil {
		data["budget"] = *sig.Budget
	}
	if sig.PhotoURL != nil {
		data["photoUrl"] = *sig.PhotoURL
	}
	return data, nil
}

func signalementFieldsEqual(doc mirror.Document, sig *domain.Signalement) bool {
	lat, latOK := doc.GetFloat("latitude")
	lng, lngOK := doc.GetFloat("longitude")
	if !latOK || !lngOK || lat != sig.Latitude || lng != sig.Longitude {
		return false
	}
	if doc.GetString("description") != sig.Description {
		return false
	}
	if doc.GetString("status") != sig.StatusName {
		return false
	}
	if !equalStringPtr(docStringPtr(doc, "uid"), sig.UserUID) {
		return false
	}
	if !equalFloatPtr(docFloatPtr(doc, "surfaceArea"), sig.SurfaceArea) {
		return false
	}
	if !equalFloatPtr(docFloatPtr(doc, "budget"), sig.Budget) {
		return false
	}
	return equalStringPtr(docStringPtr(doc, "photoUrl"), sig.PhotoURL)
}

func docFloatPtr(doc mirror.Document, field string) *float64 {
	if v, ok := doc.GetFloat(field); ok {
		return &v
	}
	return nil
}

func docStringPtr(doc mirror.Document, field string) *string {
	if v := doc.GetString(field); v != "" {
		return &v
	}
	return nil
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// slugify lowercases and reduces a name to [a-z0-9-].
func slugify(value string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func usernameSuffix(uid string) string {
	if len(uid) >= 6 {
		return strings.ToLower(uid[:6])
	}
	if uid != "" {
		return strings.ToLower(uid)
	}
	return fmt.Sprintf("%d", time.Now().UnixMilli()%1000000)
}

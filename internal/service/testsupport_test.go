package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/mirror"
	"github.com/spec-kit/signalement-service/internal/repository"
)

// memStore is a shared in-memory backing for the repository fakes, seeded
// with the default catalogs.
type memStore struct {
	mu     sync.Mutex
	nextID int64

	statuses     map[int64]domain.Status
	vstatuses    map[int64]domain.ValidationStatus
	typeUsers    map[int64]domain.TypeUser
	users        map[int64]domain.User
	entreprises  map[int64]domain.Entreprise
	signalements map[int64]domain.Signalement
	entries      []domain.StatusEntry
	validations  map[int64]domain.Validation
	vhistory     []domain.ValidationHistoryEntry
	photos       []domain.SignalementPhoto

	signalementListErr error
}

func newMemStore() *memStore {
	s := &memStore{
		statuses:     map[int64]domain.Status{},
		vstatuses:    map[int64]domain.ValidationStatus{},
		typeUsers:    map[int64]domain.TypeUser{},
		users:        map[int64]domain.User{},
		entreprises:  map[int64]domain.Entreprise{},
		signalements: map[int64]domain.Signalement{},
		validations:  map[int64]domain.Validation{},
	}
	for _, name := range []string{domain.StatusNouveau, domain.StatusEnCours, domain.StatusTermine} {
		id := s.id()
		s.statuses[id] = domain.Status{ID: id, Name: name}
	}
	for _, name := range []string{domain.ValidationPending, domain.ValidationApproved, domain.ValidationRejected} {
		id := s.id()
		s.vstatuses[id] = domain.ValidationStatus{ID: id, Name: name}
	}
	for _, name := range []string{domain.TypeUserUser, domain.TypeUserManager} {
		id := s.id()
		s.typeUsers[id] = domain.TypeUser{ID: id, Name: name}
	}
	return s
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) statusIDByName(name string) int64 {
	for _, status := range s.statuses {
		if status.Name == name {
			return status.ID
		}
	}
	return 0
}

func (s *memStore) vstatusIDByName(name string) int64 {
	for _, status := range s.vstatuses {
		if status.Name == name {
			return status.ID
		}
	}
	return 0
}

func (s *memStore) addUser(username, email, passwordHash string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	var typeID int64
	for _, t := range s.typeUsers {
		if t.Name == domain.TypeUserUser {
			typeID = t.ID
		}
	}
	user := domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		TypeUserID:   typeID,
		TypeUserName: domain.TypeUserUser,
	}
	s.users[id] = user
	return &user
}

// --- status repository fake ---

type memStatusRepo struct{ s *memStore }

func (r memStatusRepo) Create(_ context.Context, status *domain.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	status.ID = r.s.id()
	r.s.statuses[status.ID] = *status
	return nil
}

func (r memStatusRepo) Update(_ context.Context, status *domain.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.statuses[status.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.statuses[status.ID] = *status
	return nil
}

func (r memStatusRepo) GetByID(_ context.Context, id int64) (*domain.Status, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if status, ok := r.s.statuses[id]; ok {
		copied := status
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memStatusRepo) GetByName(_ context.Context, name string) (*domain.Status, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, status := range r.s.statuses {
		if status.Name == name {
			copied := status
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memStatusRepo) List(_ context.Context) ([]domain.Status, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]domain.Status, 0, len(r.s.statuses))
	for _, status := range r.s.statuses {
		result = append(result, status)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r memStatusRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.statuses[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.statuses, id)
	return nil
}

// --- validation status repository fake ---

type memValidationStatusRepo struct{ s *memStore }

func (r memValidationStatusRepo) Create(_ context.Context, status *domain.ValidationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	status.ID = r.s.id()
	r.s.vstatuses[status.ID] = *status
	return nil
}

func (r memValidationStatusRepo) GetByID(_ context.Context, id int64) (*domain.ValidationStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if status, ok := r.s.vstatuses[id]; ok {
		copied := status
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memValidationStatusRepo) GetByName(_ context.Context, name string) (*domain.ValidationStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, status := range r.s.vstatuses {
		if status.Name == name {
			copied := status
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memValidationStatusRepo) List(_ context.Context) ([]domain.ValidationStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]domain.ValidationStatus, 0, len(r.s.vstatuses))
	for _, status := range r.s.vstatuses {
		result = append(result, status)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// --- type user repository fake ---

type memTypeUserRepo struct{ s *memStore }

func (r memTypeUserRepo) Create(_ context.Context, typeUser *domain.TypeUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	typeUser.ID = r.s.id()
	r.s.typeUsers[typeUser.ID] = *typeUser
	return nil
}

func (r memTypeUserRepo) GetByID(_ context.Context, id int64) (*domain.TypeUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if typeUser, ok := r.s.typeUsers[id]; ok {
		copied := typeUser
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memTypeUserRepo) GetByName(_ context.Context, name string) (*domain.TypeUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, typeUser := range r.s.typeUsers {
		if typeUser.Name == name {
			copied := typeUser
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memTypeUserRepo) List(_ context.Context) ([]domain.TypeUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]domain.TypeUser, 0, len(r.s.typeUsers))
	for _, typeUser := range r.s.typeUsers {
		result = append(result, typeUser)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// --- entreprise repository fake ---

type memEntrepriseRepo struct{ s *memStore }

func (r memEntrepriseRepo) Create(_ context.Context, entreprise *domain.Entreprise) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entreprise.ID = r.s.id()
	r.s.entreprises[entreprise.ID] = *entreprise
	return nil
}

func (r memEntrepriseRepo) Update(_ context.Context, entreprise *domain.Entreprise) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.entreprises[entreprise.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.entreprises[entreprise.ID] = *entreprise
	return nil
}

func (r memEntrepriseRepo) GetByID(_ context.Context, id int64) (*domain.Entreprise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entreprise, ok := r.s.entreprises[id]; ok {
		copied := entreprise
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memEntrepriseRepo) GetByName(_ context.Context, name string) (*domain.Entreprise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, entreprise := range r.s.entreprises {
		if entreprise.Name == name {
			copied := entreprise
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memEntrepriseRepo) List(_ context.Context) ([]domain.Entreprise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]domain.Entreprise, 0, len(r.s.entreprises))
	for _, entreprise := range r.s.entreprises {
		result = append(result, entreprise)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r memEntrepriseRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.entreprises[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.entreprises, id)
	return nil
}

// --- user repository fake ---

type memUserRepo struct{ s *memStore }

func (r memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = r.s.id()
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user, ok := r.s.users[id]; ok {
		copied := user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]domain.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// --- signalement repository fake ---

type memSignalementRepo struct{ s *memStore }

func (r memSignalementRepo) Create(_ context.Context, sig *domain.Signalement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sig.ID = r.s.id()
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now()
	}
	r.s.signalements[sig.ID] = *sig
	return nil
}

func (r memSignalementRepo) Update(_ context.Context, sig *domain.Signalement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.signalements[sig.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.signalements[sig.ID] = *sig
	return nil
}

func (r memSignalementRepo) GetByID(_ context.Context, id int64) (*domain.Signalement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sig, ok := r.s.signalements[id]; ok {
		copied := sig
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memSignalementRepo) GetByMirrorDocID(_ context.Context, docID string) (*domain.Signalement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sig := range r.s.signalements {
		if sig.MirrorDocID != nil && *sig.MirrorDocID == docID {
			copied := sig
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memSignalementRepo) List(_ context.Context) ([]domain.Signalement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.signalementListErr != nil {
		return nil, r.s.signalementListErr
	}
	result := make([]domain.Signalement, 0, len(r.s.signalements))
	for _, sig := range r.s.signalements {
		result = append(result, sig)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r memSignalementRepo) ListByValidationStatusName(_ context.Context, statusName string) ([]domain.Signalement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Signalement
	for _, sig := range r.s.signalements {
		var validation *domain.Validation
		for _, v := range r.s.validations {
			if v.SignalementID == sig.ID {
				copied := v
				validation = &copied
				break
			}
		}
		switch {
		case validation == nil && statusName == domain.ValidationPending:
			result = append(result, sig)
		case validation != nil && validation.StatusName == statusName:
			result = append(result, sig)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r memSignalementRepo) SaveStatusTransition(_ context.Context, sig *domain.Signalement, entry *domain.StatusEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.signalements[sig.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.signalements[sig.ID] = *sig
	entry.ID = r.s.id()
	if entry.DateStatus.IsZero() {
		entry.DateStatus = time.Now()
	}
	r.s.entries = append(r.s.entries, *entry)
	return nil
}

func (r memSignalementRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.signalements[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.signalements, id)
	var entries []domain.StatusEntry
	for _, entry := range r.s.entries {
		if entry.SignalementID != id {
			entries = append(entries, entry)
		}
	}
	r.s.entries = entries
	for vid, v := range r.s.validations {
		if v.SignalementID == id {
			var history []domain.ValidationHistoryEntry
			for _, h := range r.s.vhistory {
				if h.ValidationID != vid {
					history = append(history, h)
				}
			}
			r.s.vhistory = history
			delete(r.s.validations, vid)
		}
	}
	var photos []domain.SignalementPhoto
	for _, photo := range r.s.photos {
		if photo.SignalementID != id {
			photos = append(photos, photo)
		}
	}
	r.s.photos = photos
	return nil
}

// --- status entry repository fake ---

type memStatusEntryRepo struct{ s *memStore }

func (r memStatusEntryRepo) Create(_ context.Context, entry *domain.StatusEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.id()
	if entry.DateStatus.IsZero() {
		entry.DateStatus = time.Now()
	}
	r.s.entries = append(r.s.entries, *entry)
	return nil
}

func (r memStatusEntryRepo) ListBySignalement(_ context.Context, signalementID int64) ([]domain.StatusEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.StatusEntry
	for _, entry := range r.s.entries {
		if entry.SignalementID == signalementID {
			if status, ok := r.s.statuses[entry.StatusID]; ok {
				entry.StatusName = status.Name
			}
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DateStatus.Before(result[j].DateStatus) })
	return result, nil
}

// --- photo repository fake ---

type memPhotoRepo struct{ s *memStore }

func (r memPhotoRepo) Create(_ context.Context, photo *domain.SignalementPhoto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	photo.ID = r.s.id()
	photo.CreatedAt = time.Now()
	r.s.photos = append(r.s.photos, *photo)
	return nil
}

func (r memPhotoRepo) ListBySignalement(_ context.Context, signalementID int64) ([]domain.SignalementPhoto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.SignalementPhoto
	for _, photo := range r.s.photos {
		if photo.SignalementID == signalementID {
			result = append(result, photo)
		}
	}
	return result, nil
}

func (r memPhotoRepo) DeleteBySignalement(_ context.Context, signalementID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var photos []domain.SignalementPhoto
	for _, photo := range r.s.photos {
		if photo.SignalementID != signalementID {
			photos = append(photos, photo)
		}
	}
	r.s.photos = photos
	return nil
}

// --- validation repository fake ---

type memValidationRepo struct{ s *memStore }

func (r memValidationRepo) Create(_ context.Context, validation *domain.Validation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.validations {
		if existing.SignalementID == validation.SignalementID {
			return repository.ErrDuplicateValidation
		}
	}
	validation.ID = r.s.id()
	r.s.validations[validation.ID] = *validation
	return nil
}

func (r memValidationRepo) GetByID(_ context.Context, id int64) (*domain.Validation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if validation, ok := r.s.validations[id]; ok {
		copied := validation
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memValidationRepo) GetBySignalement(_ context.Context, signalementID int64) (*domain.Validation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, validation := range r.s.validations {
		if validation.SignalementID == signalementID {
			copied := validation
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memValidationRepo) SaveWithHistory(_ context.Context, validation *domain.Validation, entry *domain.ValidationHistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.validations[validation.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.validations[validation.ID] = *validation
	entry.ID = r.s.id()
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now()
	}
	r.s.vhistory = append(r.s.vhistory, *entry)
	return nil
}

// --- validation history repository fake ---

type memValidationHistoryRepo struct{ s *memStore }

func (r memValidationHistoryRepo) Create(_ context.Context, entry *domain.ValidationHistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.id()
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now()
	}
	r.s.vhistory = append(r.s.vhistory, *entry)
	return nil
}

func (r memValidationHistoryRepo) ListByValidation(_ context.Context, validationID int64) ([]domain.ValidationHistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.ValidationHistoryEntry
	for _, entry := range r.s.vhistory {
		if entry.ValidationID == validationID {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ChangedAt.Equal(result[j].ChangedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].ChangedAt.After(result[j].ChangedAt)
	})
	return result, nil
}

// --- mirror store fake ---

type memMirrorStore struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	nextID      int
	queryErr    error
}

func newMemMirrorStore() *memMirrorStore {
	return &memMirrorStore{collections: map[string]map[string]map[string]any{}}
}

func (m *memMirrorStore) collection(name string) map[string]map[string]any {
	if m.collections[name] == nil {
		m.collections[name] = map[string]map[string]any{}
	}
	return m.collections[name]
}

func (m *memMirrorStore) Get(_ context.Context, collection, id string) (mirror.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.collection(collection)[id]
	if !ok {
		return mirror.Document{}, mirror.ErrNotFound
	}
	return mirror.Document{ID: id, Data: cloneDoc(data)}, nil
}

func (m *memMirrorStore) Set(_ context.Context, collection, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(collection)[id] = cloneDoc(data)
	return nil
}

func (m *memMirrorStore) Update(_ context.Context, collection, id string, patch map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.collection(collection)[id]
	if !ok {
		return mirror.ErrNotFound
	}
	for k, v := range patch {
		existing[k] = v
	}
	return nil
}

func (m *memMirrorStore) Create(_ context.Context, collection string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("doc-%d", m.nextID)
	m.collection(collection)[id] = cloneDoc(data)
	return id, nil
}

func (m *memMirrorStore) QueryAll(_ context.Context, collection string) ([]mirror.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var result []mirror.Document
	ids := make([]string, 0, len(m.collection(collection)))
	for id := range m.collection(collection) {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		result = append(result, mirror.Document{ID: id, Data: cloneDoc(m.collection(collection)[id])})
	}
	return result, nil
}

func cloneDoc(data map[string]any) map[string]any {
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return copied
}

// --- wiring helpers ---

type fixture struct {
	store  *memStore
	mirror *memMirrorStore

	signalements *SignalementService
	validations  *ValidationService
}

func newFixture() *fixture {
	store := newMemStore()
	f := &fixture{store: store, mirror: newMemMirrorStore()}

	f.validations = NewValidationService(ValidationDependencies{
		ValidationRepo:       memValidationRepo{store},
		HistoryRepo:          memValidationHistoryRepo{store},
		ValidationStatusRepo: memValidationStatusRepo{store},
		SignalementRepo:      memSignalementRepo{store},
		UserRepo:             memUserRepo{store},
	})
	f.signalements = NewSignalementService(SignalementDependencies{
		SignalementRepo: memSignalementRepo{store},
		StatusRepo:      memStatusRepo{store},
		StatusEntryRepo: memStatusEntryRepo{store},
		PhotoRepo:       memPhotoRepo{store},
		UserRepo:        memUserRepo{store},
		EntrepriseRepo:  memEntrepriseRepo{store},
		Validations:     f.validations,
	})
	return f
}

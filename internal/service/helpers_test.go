package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/adapter"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/store"
	"github.com/MKhiriev/go-doc-locker/models"
	"github.com/rs/zerolog"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory implementation of every store interface.
// CommitVersion deliberately reads the next version and writes it in two
// separate steps, so concurrent callers that are not serialized by the
// service collide on the same number.
type memStore struct {
	mu sync.Mutex

	users     map[int64]models.User
	documents []models.Document
	versions  map[int64][]models.ProfileVersion
	pointers  map[int64]int64
	legacy    map[int64]models.LegacyProfile
	events    []models.AuditEvent
	files     map[string][]byte

	nextID        int64
	profileWrites int

	// fail makes the named method return errInjected.
	fail map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]models.User),
		versions: make(map[int64][]models.ProfileVersion),
		pointers: make(map[int64]int64),
		legacy:   make(map[int64]models.LegacyProfile),
		files:    make(map[string][]byte),
		fail:     make(map[string]error),
	}
}

func (m *memStore) storages() *store.Storages {
	return &store.Storages{
		UserRepository:     m,
		DocumentRepository: m,
		ProfileRepository:  m,
		AuditRepository:    m,
		FileStorage:        m,
	}
}

func (m *memStore) failing(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fail[method]
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUser(user models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.UserID = m.id()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Status == "" {
		user.Status = models.UserActive
	}
	m.users[user.UserID] = user
	return user
}

func (m *memStore) addDocument(userID int64, text *string, status models.DocumentStatus) models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := models.Document{
		ID:            m.id(),
		UserID:        userID,
		Filename:      "doc.pdf",
		StoredPath:    "/uploads/doc.pdf",
		MimeType:      "application/pdf",
		ExtractedText: text,
		Status:        status,
		UploadedAt:    time.Now(),
	}
	m.documents = append(m.documents, doc)
	return doc
}

func (m *memStore) versionNumbers(userID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	numbers := make([]int64, 0, len(m.versions[userID]))
	for _, v := range m.versions[userID] {
		numbers = append(numbers, v.Version)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers
}

func (m *memStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profileWrites
}

func (m *memStore) auditActions() []models.AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]models.AuditAction, 0, len(m.events))
	for _, e := range m.events {
		actions = append(actions, e.Action)
	}
	return actions
}

// users

func (m *memStore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	if err := m.failing("CreateUser"); err != nil {
		return models.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return models.User{}, store.ErrEmailAlreadyExists
		}
	}
	user.UserID = m.id()
	m.users[user.UserID] = user
	return user, nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	if err := m.failing("FindUserByEmail"); err != nil {
		return models.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNoUserWasFound
}

func (m *memStore) FindUserByID(_ context.Context, userID int64) (models.User, error) {
	if err := m.failing("FindUserByID"); err != nil {
		return models.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return models.User{}, store.ErrNoUserWasFound
	}
	return u, nil
}

func (m *memStore) UpdateStatus(_ context.Context, userID int64, status models.UserStatus) error {
	if err := m.failing("UpdateStatus"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNoUserWasFound
	}
	u.Status = status
	m.users[userID] = u
	return nil
}

func (m *memStore) TouchLastActive(_ context.Context, userID int64, at time.Time) error {
	if err := m.failing("TouchLastActive"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNoUserWasFound
	}
	u.LastActiveAt = &at
	m.users[userID] = u
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, userID int64) ([]string, error) {
	if err := m.failing("DeleteUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return nil, store.ErrNoUserWasFound
	}
	delete(m.users, userID)
	var paths []string
	kept := m.documents[:0]
	for _, d := range m.documents {
		if d.UserID != userID {
			kept = append(kept, d)
			continue
		}
		paths = append(paths, d.StoredPath)
	}
	m.documents = kept
	delete(m.versions, userID)
	delete(m.pointers, userID)
	delete(m.legacy, userID)
	return paths, nil
}

// documents

func (m *memStore) CreateDocument(_ context.Context, doc models.Document) (models.Document, error) {
	if err := m.failing("CreateDocument"); err != nil {
		return models.Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = m.id()
	m.documents = append(m.documents, doc)
	return doc, nil
}

func (m *memStore) GetDocument(_ context.Context, userID, documentID int64) (models.Document, error) {
	if err := m.failing("GetDocument"); err != nil {
		return models.Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.documents {
		if d.ID == documentID && d.UserID == userID {
			return d, nil
		}
	}
	return models.Document{}, store.ErrDocumentNotFound
}

func (m *memStore) ListDocuments(_ context.Context, userID int64) ([]models.Document, error) {
	if err := m.failing("ListDocuments"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []models.Document
	for i := len(m.documents) - 1; i >= 0; i-- {
		if m.documents[i].UserID == userID {
			docs = append(docs, m.documents[i])
		}
	}
	return docs, nil
}

func (m *memStore) ExtractedTexts(_ context.Context, userID int64) ([]string, error) {
	if err := m.failing("ExtractedTexts"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var texts []string
	for _, d := range m.documents {
		if d.UserID == userID && d.ExtractedText != nil {
			texts = append(texts, *d.ExtractedText)
		}
	}
	return texts, nil
}

func (m *memStore) MarkRemoved(_ context.Context, userID, documentID int64, at time.Time) error {
	if err := m.failing("MarkRemoved"); err != nil {
		return err
	}
	return m.updateDocument(func(d *models.Document) bool {
		if d.ID != documentID || d.UserID != userID {
			return false
		}
		d.Status = models.DocumentFailed
		if d.RemovedAt == nil {
			d.RemovedAt = &at
		}
		return true
	})
}

func (m *memStore) SetStatus(_ context.Context, userID, documentID int64, status models.DocumentStatus) error {
	if err := m.failing("SetStatus"); err != nil {
		return err
	}
	return m.updateDocument(func(d *models.Document) bool {
		if d.ID != documentID || d.UserID != userID {
			return false
		}
		d.Status = status
		return true
	})
}

func (m *memStore) ListByStatus(_ context.Context, status models.DocumentStatus, limit int) ([]models.Document, error) {
	if err := m.failing("ListByStatus"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []models.Document
	for _, d := range m.documents {
		if d.Status == status && d.RemovedAt == nil && len(docs) < limit {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (m *memStore) SaveExtraction(_ context.Context, documentID int64, text *string, status models.DocumentStatus) error {
	if err := m.failing("SaveExtraction"); err != nil {
		return err
	}
	return m.updateDocument(func(d *models.Document) bool {
		if d.ID != documentID || d.Status != models.DocumentProcessing {
			return false
		}
		d.ExtractedText = text
		d.Status = status
		return true
	})
}

func (m *memStore) updateDocument(apply func(d *models.Document) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.documents {
		if apply(&m.documents[i]) {
			return nil
		}
	}
	return store.ErrDocumentNotFound
}

// profiles

func (m *memStore) CommitVersion(_ context.Context, userID int64, payload json.RawMessage, rendered *string) (models.ProfileVersion, error) {
	if err := m.failing("CommitVersion"); err != nil {
		return models.ProfileVersion{}, err
	}

	m.mu.Lock()
	next := int64(1)
	for _, v := range m.versions[userID] {
		if v.Version >= next {
			next = v.Version + 1
		}
	}
	m.mu.Unlock()

	time.Sleep(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	version := models.ProfileVersion{
		UserID:    userID,
		Version:   next,
		Payload:   append(json.RawMessage(nil), payload...),
		Rendered:  rendered,
		CreatedAt: time.Now(),
	}
	m.versions[userID] = append(m.versions[userID], version)
	m.pointers[userID] = next
	m.profileWrites++
	return version, nil
}

func (m *memStore) GetCurrentVersion(_ context.Context, userID int64) (models.ProfileVersion, error) {
	if err := m.failing("GetCurrentVersion"); err != nil {
		return models.ProfileVersion{}, err
	}
	m.mu.Lock()
	current, ok := m.pointers[userID]
	m.mu.Unlock()
	if !ok {
		return models.ProfileVersion{}, store.ErrProfileNotFound
	}
	return m.GetVersion(context.Background(), userID, current)
}

func (m *memStore) GetVersion(_ context.Context, userID, version int64) (models.ProfileVersion, error) {
	if err := m.failing("GetVersion"); err != nil {
		return models.ProfileVersion{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions[userID] {
		if v.Version == version {
			return v, nil
		}
	}
	return models.ProfileVersion{}, store.ErrProfileNotFound
}

func (m *memStore) ListVersions(_ context.Context, userID int64) ([]models.ProfileVersion, error) {
	if err := m.failing("ListVersions"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	versions := append([]models.ProfileVersion{}, m.versions[userID]...)
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions, nil
}

func (m *memStore) GetLegacy(_ context.Context, userID int64) (models.LegacyProfile, error) {
	if err := m.failing("GetLegacy"); err != nil {
		return models.LegacyProfile{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.legacy[userID]
	if !ok {
		return models.LegacyProfile{}, store.ErrProfileNotFound
	}
	return l, nil
}

func (m *memStore) SaveLegacy(_ context.Context, userID int64, payload json.RawMessage) (models.LegacyProfile, error) {
	if err := m.failing("SaveLegacy"); err != nil {
		return models.LegacyProfile{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l := models.LegacyProfile{UserID: userID, Payload: append(json.RawMessage(nil), payload...), LastUpdated: time.Now()}
	m.legacy[userID] = l
	m.profileWrites++
	return l, nil
}

// audit

func (m *memStore) SaveEvent(_ context.Context, event models.AuditEvent) (models.AuditEvent, error) {
	if err := m.failing("SaveEvent"); err != nil {
		return models.AuditEvent{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = m.id()
	event.CreatedAt = time.Now()
	m.events = append(m.events, event)
	return event, nil
}

func (m *memStore) ListEvents(_ context.Context, targetUserID int64) ([]models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []models.AuditEvent
	for _, e := range m.events {
		if e.TargetUserID == targetUserID {
			events = append(events, e)
		}
	}
	return events, nil
}

// files

func (m *memStore) Save(_ context.Context, originalName string, r io.Reader) (string, int64, error) {
	if err := m.failing("Save"); err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return "", 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := "/uploads/" + originalName
	m.files[path] = buf.Bytes()
	return path, n, nil
}

func (m *memStore) Remove(_ context.Context, storedPath string) error {
	if err := m.failing("Remove"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[storedPath]; !ok {
		return store.ErrFileNotFound
	}
	delete(m.files, storedPath)
	return nil
}

func (m *memStore) Open(_ context.Context, storedPath string) (io.ReadCloser, error) {
	if err := m.failing("Open"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[storedPath]
	if !ok {
		return nil, store.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) hasFile(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func testContext() context.Context {
	return zerolog.Nop().WithContext(context.Background())
}

func newTestAudit(m *memStore) AuditService {
	return NewAuditService(m, adapter.NewNopPublisher(), logger.Nop())
}

func textPtr(s string) *string {
	return &s
}

var (
	admin = models.Requestor{ID: 1000, Role: models.RoleAdmin}
)

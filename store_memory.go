package main

import (
	"sync"

	"memberhub/models"
)

// memoryStore is a thread-safe in-memory implementation of MemberStore and
// RefreshTokenStore, used by the tests and when no DB_DSN is configured.
type memoryStore struct {
	mu sync.RWMutex

	nextID          uint
	membersByID     map[uint]*models.Member
	membersByNumber map[int64]*models.Member

	refreshByUUID map[string]*models.RefreshToken
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		membersByID:     make(map[uint]*models.Member),
		membersByNumber: make(map[int64]*models.Member),
		refreshByUUID:   make(map[string]*models.RefreshToken),
	}
}

func (m *memoryStore) FindByStudentNumber(studentNumber int64) (*models.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.membersByNumber[studentNumber]
	if !ok {
		return nil, ErrMemberNotFound
	}
	cp := *mem
	return &cp, nil
}

func (m *memoryStore) FindByEmail(email string) (*models.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mem := range m.membersByID {
		if mem.Email != nil && *mem.Email == email {
			cp := *mem
			return &cp, nil
		}
	}
	return nil, ErrMemberNotFound
}

func (m *memoryStore) FindByUserID(userID uint) (*models.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.membersByID[userID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	cp := *mem
	return &cp, nil
}

func (m *memoryStore) Save(mem *models.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mem.ID == 0 {
		m.nextID++
		mem.ID = m.nextID
	} else if mem.ID > m.nextID {
		m.nextID = mem.ID
	}
	cp := *mem
	m.membersByID[cp.ID] = &cp
	m.membersByNumber[cp.StudentNumber] = &cp
	return nil
}

func (m *memoryStore) Delete(userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.membersByID[userID]
	if !ok {
		return ErrMemberNotFound
	}
	delete(m.membersByID, userID)
	delete(m.membersByNumber, mem.StudentNumber)
	for id, rt := range m.refreshByUUID {
		if rt.UserID == userID {
			delete(m.refreshByUUID, id)
		}
	}
	return nil
}

func (m *memoryStore) List(limit int) ([]models.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var members []models.Member
	for _, mem := range m.membersByID {
		members = append(members, *mem)
		if len(members) == limit {
			break
		}
	}
	return members, nil
}

func (m *memoryStore) Create(rt *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rt.ID = m.nextID
	cp := *rt
	m.refreshByUUID[cp.UUID] = &cp
	return nil
}

func (m *memoryStore) FindByUUID(id string) (*models.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rt, ok := m.refreshByUUID[id]
	if !ok {
		return nil, ErrNoSuchElement
	}
	cp := *rt
	return &cp, nil
}

func (m *memoryStore) UpdateExpiry(id string, expMillis int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.refreshByUUID[id]
	if !ok {
		return ErrNoSuchElement
	}
	rt.ExpiresAt = expMillis
	return nil
}

func (m *memoryStore) DeleteByUUID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refreshByUUID, id)
	return nil
}

func (m *memoryStore) DeleteForUser(userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rt := range m.refreshByUUID {
		if rt.UserID == userID {
			delete(m.refreshByUUID, id)
		}
	}
	return nil
}

func (m *memoryStore) FindAllForUser(userID uint) ([]models.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []models.RefreshToken
	for _, rt := range m.refreshByUUID {
		if rt.UserID == userID {
			rows = append(rows, *rt)
		}
	}
	return rows, nil
}

func (m *memoryStore) FindExpiredBefore(nowMillis int64) ([]models.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []models.RefreshToken
	for _, rt := range m.refreshByUUID {
		if rt.ExpiresAt < nowMillis {
			rows = append(rows, *rt)
		}
	}
	return rows, nil
}

func (m *memoryStore) DeleteExpiredBefore(nowMillis int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rt := range m.refreshByUUID {
		if rt.ExpiresAt < nowMillis {
			delete(m.refreshByUUID, id)
			n++
		}
	}
	return n, nil
}

package main

import (
	"encoding/hex"
	"errors"

	"memberhub/models"

	"golang.org/x/crypto/sha3"
	"gorm.io/gorm"
)

// HashPassword derives the stored password digest. Deterministic on purpose:
// the same plaintext+salt always yields the same digest, so lookups and
// comparisons are plain string equality against the stored value.
func HashPassword(plain, salt string) string {
	sum := sha3.Sum256([]byte(plain + salt))
	return hex.EncodeToString(sum[:])
}

// MemberStore is the narrow credential persistence interface.
type MemberStore interface {
	FindByStudentNumber(studentNumber int64) (*models.Member, error)
	FindByEmail(email string) (*models.Member, error)
	FindByUserID(userID uint) (*models.Member, error)
	Save(m *models.Member) error
	// Delete removes the member and all of its refresh-token rows as one unit.
	Delete(userID uint) error
	List(limit int) ([]models.Member, error)
}

// RefreshTokenStore is the narrow refresh-token persistence interface.
type RefreshTokenStore interface {
	Create(rt *models.RefreshToken) error
	FindByUUID(id string) (*models.RefreshToken, error)
	// UpdateExpiry extends the row in place as a single-row update; rotation
	// safety against concurrent callers relies on the store's own atomicity.
	UpdateExpiry(id string, expMillis int64) error
	DeleteByUUID(id string) error
	DeleteForUser(userID uint) error
	FindAllForUser(userID uint) ([]models.RefreshToken, error)
	FindExpiredBefore(nowMillis int64) ([]models.RefreshToken, error)
	DeleteExpiredBefore(nowMillis int64) (int64, error)
}

type gormMemberStore struct {
	db *gorm.DB
}

func newGormMemberStore(db *gorm.DB) *gormMemberStore {
	return &gormMemberStore{db: db}
}

func (s *gormMemberStore) FindByStudentNumber(studentNumber int64) (*models.Member, error) {
	var m models.Member
	if err := s.db.Where("student_number = ?", studentNumber).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *gormMemberStore) FindByEmail(email string) (*models.Member, error) {
	var m models.Member
	if err := s.db.Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *gormMemberStore) FindByUserID(userID uint) (*models.Member, error) {
	var m models.Member
	if err := s.db.First(&m, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *gormMemberStore) Save(m *models.Member) error {
	return s.db.Save(m).Error
}

func (s *gormMemberStore) Delete(userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var m models.Member
		if err := tx.First(&m, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
}

func (s *gormMemberStore) List(limit int) ([]models.Member, error) {
	var members []models.Member
	if err := s.db.Order("id").Limit(limit).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

type gormRefreshStore struct {
	db *gorm.DB
}

func newGormRefreshStore(db *gorm.DB) *gormRefreshStore {
	return &gormRefreshStore{db: db}
}

func (s *gormRefreshStore) Create(rt *models.RefreshToken) error {
	return s.db.Create(rt).Error
}

func (s *gormRefreshStore) FindByUUID(id string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.Where("uuid = ?", id).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSuchElement
		}
		return nil, err
	}
	return &rt, nil
}

func (s *gormRefreshStore) UpdateExpiry(id string, expMillis int64) error {
	res := s.db.Model(&models.RefreshToken{}).Where("uuid = ?", id).Update("expires_at", expMillis)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoSuchElement
	}
	return nil
}

func (s *gormRefreshStore) DeleteByUUID(id string) error {
	return s.db.Where("uuid = ?", id).Delete(&models.RefreshToken{}).Error
}

func (s *gormRefreshStore) DeleteForUser(userID uint) error {
	return s.db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

func (s *gormRefreshStore) FindAllForUser(userID uint) ([]models.RefreshToken, error) {
	var rows []models.RefreshToken
	if err := s.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *gormRefreshStore) FindExpiredBefore(nowMillis int64) ([]models.RefreshToken, error) {
	var rows []models.RefreshToken
	if err := s.db.Where("expires_at < ?", nowMillis).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *gormRefreshStore) DeleteExpiredBefore(nowMillis int64) (int64, error) {
	res := s.db.Where("expires_at < ?", nowMillis).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

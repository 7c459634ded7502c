package main

import (
	"fmt"
	"time"

	"memberhub/models"
	"memberhub/pkg/token"

	"github.com/google/uuid"
)

const (
	accessTokenType  = "JWT"
	refreshTokenType = "JWT"

	claimUserID        = "user_id"
	claimStudentNumber = "student_number"
	claimRole          = "role"
	claimPermissions   = "permissions"
	claimUUID          = "uuid"
)

// AccessTokenClaims is the ephemeral identity carried by an access token.
// It is never stored server-side; trust derives from signature and expiry.
type AccessTokenClaims struct {
	UserID        uint
	StudentNumber int64
	Roles         []string
	Permissions   []string
}

// HasPermission reports whether the claims carry the given permission tag.
func (c *AccessTokenClaims) HasPermission(p models.Permission) bool {
	for _, name := range c.Permissions {
		if name == string(p) {
			return true
		}
	}
	return false
}

// HasRole reports whether the claims carry the given role tag.
func (c *AccessTokenClaims) HasRole(r models.Role) bool {
	for _, name := range c.Roles {
		if name == string(r) {
			return true
		}
	}
	return false
}

// TokenPair holds the serialized access and refresh tokens as handed to the
// client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService orchestrates login, token-pair issuance, rotation, logout,
// password change and withdrawal against the credential and refresh stores.
type SessionService struct {
	members MemberStore
	refresh RefreshTokenStore
	codec   *token.Codec
	cfg     *Config
	now     func() time.Time
}

func newSessionService(members MemberStore, refresh RefreshTokenStore, codec *token.Codec, cfg *Config) *SessionService {
	return &SessionService{
		members: members,
		refresh: refresh,
		codec:   codec,
		cfg:     cfg,
		now:     time.Now,
	}
}

func claimsFromMember(m *models.Member) *AccessTokenClaims {
	return &AccessTokenClaims{
		UserID:        m.ID,
		StudentNumber: m.StudentNumber,
		Roles:         models.RoleNames(m.Roles()),
		Permissions:   models.PermissionNames(m.Permissions()),
	}
}

// SignUp creates a new credential with the default MEMBER role and
// permission. Duplicate student numbers and emails are rejected.
func (s *SessionService) SignUp(studentNumber int64, email, password string) (*models.Member, error) {
	if _, err := s.members.FindByStudentNumber(studentNumber); err == nil {
		return nil, fmt.Errorf("student number already registered")
	}
	if email != "" {
		if _, err := s.members.FindByEmail(email); err == nil {
			return nil, fmt.Errorf("email already registered")
		}
	}
	m := &models.Member{
		StudentNumber: studentNumber,
		PasswordHash:  HashPassword(password, s.cfg.HashSalt),
	}
	if email != "" {
		m.Email = &email
	}
	m.SetRoles([]models.Role{models.RoleMember})
	m.SetPermissions([]models.Permission{models.PermMember})
	if err := s.members.Save(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Login checks the password digest and, on success, persists one new
// refresh-token row and returns the claims, row and serialized pair.
func (s *SessionService) Login(studentNumber int64, password string) (*AccessTokenClaims, *models.RefreshToken, TokenPair, error) {
	m, err := s.members.FindByStudentNumber(studentNumber)
	if err != nil {
		return nil, nil, TokenPair{}, err
	}
	if HashPassword(password, s.cfg.HashSalt) != m.PasswordHash {
		return nil, nil, TokenPair{}, ErrInvalidPassword
	}
	rt := &models.RefreshToken{
		UUID:      uuid.NewString(),
		UserID:    m.ID,
		ExpiresAt: s.now().Add(s.cfg.RefreshTokenTTL).UnixMilli(),
	}
	if err := s.refresh.Create(rt); err != nil {
		return nil, nil, TokenPair{}, err
	}
	claims := claimsFromMember(m)
	pair, err := s.GenerateTokenPair(claims, rt.UUID)
	if err != nil {
		return nil, nil, TokenPair{}, err
	}
	return claims, rt, pair, nil
}

// ReLogin exchanges a refresh token for a fresh pair. The existing row keeps
// its id and has its expiry extended in place (sliding expiration); the new
// access token reflects the member's current roles and permissions.
func (s *SessionService) ReLogin(refreshTokenString string) (*AccessTokenClaims, *models.RefreshToken, TokenPair, error) {
	fields, err := s.codec.VerifyAndParse(refreshTokenString, map[string]token.FieldType{
		claimUUID: token.FieldUUID,
	})
	if err != nil {
		return nil, nil, TokenPair{}, err
	}
	id := fields[claimUUID].(uuid.UUID).String()
	rt, err := s.refresh.FindByUUID(id)
	if err != nil {
		return nil, nil, TokenPair{}, err
	}
	now := s.now()
	if rt.Expired(now.UnixMilli()) {
		// expired row the sweep has not reached yet; must not rotate
		return nil, nil, TokenPair{}, ErrNoSuchElement
	}
	m, err := s.members.FindByUserID(rt.UserID)
	if err != nil {
		return nil, nil, TokenPair{}, err
	}
	rt.ExpiresAt = now.Add(s.cfg.RefreshTokenTTL).UnixMilli()
	if err := s.refresh.UpdateExpiry(rt.UUID, rt.ExpiresAt); err != nil {
		return nil, nil, TokenPair{}, err
	}
	claims := claimsFromMember(m)
	pair, err := s.GenerateTokenPair(claims, rt.UUID)
	if err != nil {
		return nil, nil, TokenPair{}, err
	}
	return claims, rt, pair, nil
}

// GenerateTokenPair serializes the pair from the given in-memory claims.
// Pure: no rows are read or written.
func (s *SessionService) GenerateTokenPair(claims *AccessTokenClaims, refreshUUID string) (TokenPair, error) {
	access, err := s.codec.Issue(accessTokenType, map[string]any{
		claimUserID:        int64(claims.UserID),
		claimStudentNumber: claims.StudentNumber,
		claimRole:          claims.Roles,
		claimPermissions:   claims.Permissions,
	}, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Issue(refreshTokenType, map[string]any{
		claimUserID: int64(claims.UserID),
		claimUUID:   refreshUUID,
	}, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccessToken verifies an access token and materializes its claims.
func (s *SessionService) ParseAccessToken(tokenString string) (*AccessTokenClaims, error) {
	fields, err := s.codec.VerifyAndParse(tokenString, map[string]token.FieldType{
		claimUserID:        token.FieldInt64,
		claimStudentNumber: token.FieldInt64,
		claimRole:          token.FieldArray,
		claimPermissions:   token.FieldArray,
	})
	if err != nil {
		return nil, err
	}
	roles, err := stringSlice(fields[claimRole].([]any))
	if err != nil {
		return nil, fmt.Errorf("%w: claim %q", token.ErrTypeMismatch, claimRole)
	}
	perms, err := stringSlice(fields[claimPermissions].([]any))
	if err != nil {
		return nil, fmt.Errorf("%w: claim %q", token.ErrTypeMismatch, claimPermissions)
	}
	return &AccessTokenClaims{
		UserID:        uint(fields[claimUserID].(int64)),
		StudentNumber: fields[claimStudentNumber].(int64),
		Roles:         roles,
		Permissions:   perms,
	}, nil
}

// ValidateOwnership verifies the token and additionally proves it belongs to
// the expected user. A valid token for a different user fails with
// ErrTokenOwnerMismatch, distinguishable from not-authenticated.
func (s *SessionService) ValidateOwnership(tokenString string, expectedUserID uint) (*AccessTokenClaims, error) {
	claims, err := s.ParseAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.UserID != expectedUserID {
		return nil, ErrTokenOwnerMismatch
	}
	return claims, nil
}

// Logout deletes the refresh row referenced by the given refresh token. An
// unknown or garbled token is not an error: logout is idempotent.
func (s *SessionService) Logout(refreshTokenString string) {
	fields, err := s.codec.VerifyAndParse(refreshTokenString, map[string]token.FieldType{
		claimUUID: token.FieldUUID,
	})
	if err != nil {
		return
	}
	_ = s.refresh.DeleteByUUID(fields[claimUUID].(uuid.UUID).String())
}

// EditPassword re-hashes and overwrites the member's password digest.
func (s *SessionService) EditPassword(studentNumber int64, newPassword string) error {
	m, err := s.members.FindByStudentNumber(studentNumber)
	if err != nil {
		return err
	}
	m.PasswordHash = HashPassword(newPassword, s.cfg.HashSalt)
	return s.members.Save(m)
}

// Delete removes the credential and all of its refresh rows as one unit.
func (s *SessionService) Delete(userID uint) error {
	return s.members.Delete(userID)
}

// SweepExpiredRefreshTokens bulk-deletes rows whose expiry is before the
// given instant. Idempotent; rows with exp >= now are never touched.
func (s *SessionService) SweepExpiredRefreshTokens(nowMillis int64) (int64, error) {
	return s.refresh.DeleteExpiredBefore(nowMillis)
}

func stringSlice(items []any) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("non-string element")
		}
		out = append(out, s)
	}
	return out, nil
}

package main

import (
	"errors"
	"testing"
	"time"

	"memberhub/models"
	"memberhub/pkg/token"
)

func testConfig() *Config {
	return &Config{
		JWTSecret:       []byte("test-secret"),
		HashSalt:        "test-salt",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		CookieSecure:    false,
		GateEnabled:     true,
	}
}

func newTestService(cfg *Config) (*SessionService, *memoryStore) {
	store := newMemoryStore()
	svc := newSessionService(store, store, token.NewCodec(cfg.JWTSecret), cfg)
	return svc, store
}

func seedMember(t *testing.T, store *memoryStore, cfg *Config, studentNumber int64, password string) *models.Member {
	t.Helper()
	m := &models.Member{
		StudentNumber: studentNumber,
		PasswordHash:  HashPassword(password, cfg.HashSalt),
	}
	m.SetRoles([]models.Role{models.RoleMember})
	m.SetPermissions([]models.Permission{models.PermMember})
	if err := store.Save(m); err != nil {
		t.Fatalf("seed member failed: %v", err)
	}
	return m
}

func TestHashPasswordDeterministic(t *testing.T) {
	a := HashPassword("correctpw", "salt")
	b := HashPassword("correctpw", "salt")
	if a != b {
		t.Fatalf("digest not deterministic: %s vs %s", a, b)
	}
	if HashPassword("correctpw", "other") == a {
		t.Fatalf("salt has no effect on digest")
	}
	if HashPassword("wrongpw", "salt") == a {
		t.Fatalf("different plaintexts collide")
	}
}

func TestLoginScenario(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	m := seedMember(t, store, cfg, 2023158029, "correctpw")

	claims, rt, pair, err := svc.Login(2023158029, "correctpw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty token pair")
	}
	if claims.UserID != m.ID || claims.StudentNumber != 2023158029 {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	rows, _ := store.FindAllForUser(m.ID)
	if len(rows) != 1 || rows[0].UUID != rt.UUID {
		t.Fatalf("expected one refresh row, got %v", rows)
	}

	_, _, _, err = svc.Login(2023158029, "wrongpw")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	rows, _ = store.FindAllForUser(m.ID)
	if len(rows) != 1 {
		t.Fatalf("failed login created a refresh row: %v", rows)
	}

	_, _, _, err = svc.Login(9999999999, "correctpw")
	if !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestLoginSupportsMultipleDevices(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	m := seedMember(t, store, cfg, 2023158029, "correctpw")

	for i := 0; i < 3; i++ {
		if _, _, _, err := svc.Login(2023158029, "correctpw"); err != nil {
			t.Fatalf("login %d failed: %v", i, err)
		}
	}
	rows, _ := store.FindAllForUser(m.ID)
	if len(rows) != 3 {
		t.Fatalf("expected 3 concurrent refresh rows, got %d", len(rows))
	}
}

func TestReLoginSlidingWindow(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	m := seedMember(t, store, cfg, 2023158029, "correctpw")

	t0 := time.Now()
	svc.now = func() time.Time { return t0 }
	_, rt, pair, err := svc.Login(2023158029, "correctpw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// permission change after login must show up on the next rotation
	m.SetPermissions([]models.Permission{models.PermMember, models.PermAdmin})
	if err := store.Save(m); err != nil {
		t.Fatalf("save member failed: %v", err)
	}

	// rotate just before expiry
	t1 := t0.Add(cfg.RefreshTokenTTL - time.Second)
	svc.now = func() time.Time { return t1 }
	claims, rotated, _, err := svc.ReLogin(pair.RefreshToken)
	if err != nil {
		t.Fatalf("relogin failed: %v", err)
	}
	if rotated.UUID != rt.UUID {
		t.Fatalf("rotation minted a new id: %s vs %s", rotated.UUID, rt.UUID)
	}
	wantExp := t1.Add(cfg.RefreshTokenTTL).UnixMilli()
	if rotated.ExpiresAt != wantExp {
		t.Fatalf("expiry not extended in place: got %d want %d", rotated.ExpiresAt, wantExp)
	}
	stored, err := store.FindByUUID(rt.UUID)
	if err != nil || stored.ExpiresAt != wantExp {
		t.Fatalf("stored row not updated: %v %v", stored, err)
	}
	if !claims.HasPermission(models.PermAdmin) {
		t.Fatalf("rotated access token missing current permissions: %v", claims.Permissions)
	}
}

func TestReLoginExpiredRowRejected(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	seedMember(t, store, cfg, 2023158029, "correctpw")

	t0 := time.Now()
	svc.now = func() time.Time { return t0 }
	_, _, pair, err := svc.Login(2023158029, "correctpw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	svc.now = func() time.Time { return t0.Add(cfg.RefreshTokenTTL + time.Second) }
	_, _, _, err = svc.ReLogin(pair.RefreshToken)
	if !errors.Is(err, ErrNoSuchElement) {
		t.Fatalf("expected ErrNoSuchElement for expired row, got %v", err)
	}
}

func TestReLoginUnknownUUID(t *testing.T) {
	cfg := testConfig()
	svc, _ := newTestService(cfg)

	// correctly signed refresh token whose row was never persisted
	codec := token.NewCodec(cfg.JWTSecret)
	forged, err := codec.Issue("JWT", map[string]any{
		"user_id": int64(1),
		"uuid":    "3b7c3f1e-0000-4000-8000-000000000000",
	}, cfg.RefreshTokenTTL)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, _, _, err = svc.ReLogin(forged)
	if !errors.Is(err, ErrNoSuchElement) {
		t.Fatalf("expected ErrNoSuchElement, got %v", err)
	}
}

func TestReLoginGarbledToken(t *testing.T) {
	cfg := testConfig()
	svc, _ := newTestService(cfg)
	_, _, _, err := svc.ReLogin("not-a-token")
	if !errors.Is(err, token.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestSweepIdempotence(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	seedMember(t, store, cfg, 2023158029, "correctpw")

	now := time.Now()
	svc.now = func() time.Time { return now.Add(-2 * cfg.RefreshTokenTTL) }
	for i := 0; i < 2; i++ {
		if _, _, _, err := svc.Login(2023158029, "correctpw"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
	}
	svc.now = func() time.Time { return now }
	_, fresh, _, err := svc.Login(2023158029, "correctpw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	expired, err := store.FindExpiredBefore(now.UnixMilli())
	if err != nil || len(expired) != 2 {
		t.Fatalf("expected 2 expired rows before sweep, got %d (%v)", len(expired), err)
	}

	n, err := svc.SweepExpiredRefreshTokens(now.UnixMilli())
	if err != nil || n != 2 {
		t.Fatalf("first sweep: n=%d err=%v", n, err)
	}
	n, err = svc.SweepExpiredRefreshTokens(now.UnixMilli())
	if err != nil || n != 0 {
		t.Fatalf("second sweep not idempotent: n=%d err=%v", n, err)
	}
	if _, err := store.FindByUUID(fresh.UUID); err != nil {
		t.Fatalf("sweep deleted an unexpired row: %v", err)
	}
}

func TestDeleteCascadesRefreshRows(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	m := seedMember(t, store, cfg, 2023158029, "correctpw")
	if _, _, _, err := svc.Login(2023158029, "correctpw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := svc.Delete(m.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.FindByUserID(m.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("member still present: %v", err)
	}
	rows, _ := store.FindAllForUser(m.ID)
	if len(rows) != 0 {
		t.Fatalf("refresh rows not cascaded: %v", rows)
	}

	if err := svc.Delete(m.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound on second delete, got %v", err)
	}
}

func TestEditPassword(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	seedMember(t, store, cfg, 2023158029, "correctpw")

	if err := svc.EditPassword(2023158029, "newpw123"); err != nil {
		t.Fatalf("edit password failed: %v", err)
	}
	if _, _, _, err := svc.Login(2023158029, "correctpw"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, _, _, err := svc.Login(2023158029, "newpw123"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	if err := svc.EditPassword(1111111111, "whatever"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestValidateOwnership(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	m := seedMember(t, store, cfg, 2023158029, "correctpw")
	_, _, pair, err := svc.Login(2023158029, "correctpw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := svc.ValidateOwnership(pair.AccessToken, m.ID); err != nil {
		t.Fatalf("ownership check failed for owner: %v", err)
	}
	if _, err := svc.ValidateOwnership(pair.AccessToken, m.ID+1); !errors.Is(err, ErrTokenOwnerMismatch) {
		t.Fatalf("expected ErrTokenOwnerMismatch, got %v", err)
	}
	if _, err := svc.ValidateOwnership("garbage", m.ID); errors.Is(err, ErrTokenOwnerMismatch) {
		t.Fatalf("garbled token must not report owner mismatch")
	}
}

func TestLogoutDeletesRow(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	seedMember(t, store, cfg, 2023158029, "correctpw")
	_, rt, pair, err := svc.Login(2023158029, "correctpw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	svc.Logout(pair.RefreshToken)
	if _, err := store.FindByUUID(rt.UUID); !errors.Is(err, ErrNoSuchElement) {
		t.Fatalf("refresh row survived logout: %v", err)
	}
	// idempotent: unknown and garbled tokens are no-ops
	svc.Logout(pair.RefreshToken)
	svc.Logout("garbage")
}

func TestGenerateTokenPairIsPure(t *testing.T) {
	cfg := testConfig()
	svc, store := newTestService(cfg)
	m := seedMember(t, store, cfg, 2023158029, "correctpw")

	claims := claimsFromMember(m)
	pair, err := svc.GenerateTokenPair(claims, "3b7c3f1e-0000-4000-8000-000000000000")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty pair")
	}
	rows, _ := store.FindAllForUser(m.ID)
	if len(rows) != 0 {
		t.Fatalf("pure serialization created rows: %v", rows)
	}
}

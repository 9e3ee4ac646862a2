package accounts

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/email"
	"github.com/merchantry/merchantry/pkg/repository"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, message email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, message)
	return nil
}

func (m *fakeMailer) Close() error { return nil }

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: make(map[string]time.Duration)}
}

func (d *fakeDenylist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[token] = ttl
	return nil
}

func (d *fakeDenylist) IsRevoked(_ context.Context, token string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[token]
	return ok, nil
}

type fixture struct {
	svc      *Service
	store    *repository.MemoryStore
	mailer   *fakeMailer
	denylist *fakeDenylist
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	store.UniqueKeys = map[string][]string{Collection: {"email"}}
	tokens, err := auth.NewTokenManager("test-secret-with-enough-entropy", "merchantry-test")
	if err != nil {
		t.Fatalf("failed to build token manager: %v", err)
	}
	mailer := &fakeMailer{}
	denylist := newFakeDenylist()
	svc, err := NewService(Options{
		Store:       store,
		Tokens:      tokens,
		Denylist:    denylist,
		Mailer:      mailer,
		FrontendURL: "https://shop.example.com",
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	svc.newToken = func() string { return "fixed-verification-token" }
	return &fixture{svc: svc, store: store, mailer: mailer, denylist: denylist}
}

func signUpPayload(overrides map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		"name":     "Jamie Carter",
		"email":    "jamie@example.com",
		"password": "correct horse battery",
		"phone":    "01712345678",
	}
	for k, v := range overrides {
		payload[k] = v
	}
	return payload
}

func (f *fixture) signUp(t *testing.T, overrides map[string]interface{}) repository.Record {
	t.Helper()
	res, err := f.svc.SignUp(context.Background(), signUpPayload(overrides))
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	return res.Data.(repository.Record)
}

func TestSignUp_HashesPasswordAndSetsDefaults(t *testing.T) {
	f := newFixture(t)

	rec := f.signUp(t, nil)
	if _, ok := rec["password"]; ok {
		t.Fatalf("expected password masked from the response, got %v", rec)
	}
	if rec["role"] != string(auth.RoleUser) {
		t.Fatalf("expected default user role, got %v", rec["role"])
	}
	if rec["isEmailVerified"] != false {
		t.Fatalf("expected unverified email, got %v", rec["isEmailVerified"])
	}

	stored, err := f.store.FindOne(context.Background(), Collection,
		repository.Filter{"email": "jamie@example.com"})
	if err != nil {
		t.Fatalf("store read failed: %v", err)
	}
	hash, _ := stored["password"].(string)
	if hash == "" || hash == "correct horse battery" {
		t.Fatalf("expected stored password hashed, got %q", hash)
	}
	if !auth.ComparePassword(hash, "correct horse battery") {
		t.Fatalf("stored hash does not match the password")
	}
}

func TestSignUp_SendsVerificationMail(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, nil)

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one verification mail, got %d", len(f.mailer.sent))
	}
	msg := f.mailer.sent[0]
	if msg.To[0] != "jamie@example.com" {
		t.Fatalf("unexpected recipient: %v", msg.To)
	}
	if !strings.Contains(msg.TextBody, "https://shop.example.com/verify-email?token=fixed-verification-token") {
		t.Fatalf("expected verification link in body, got %q", msg.TextBody)
	}
}

func TestSignUp_MailFailureDoesNotFailTheAccount(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = context.DeadlineExceeded

	rec := f.signUp(t, nil)
	if rec["email"] != "jamie@example.com" {
		t.Fatalf("expected the account created despite mail failure, got %v", rec)
	}
}

func TestSignUp_RejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, nil)

	_, err := f.svc.SignUp(context.Background(), signUpPayload(nil))
	fields := apperror.FieldsOf(err)
	if len(fields["email"]) == 0 || fields["email"][0] != "an account with this email already exists" {
		t.Fatalf("expected custom duplicate message, got %v", fields)
	}
}

func TestSignUp_ValidatesPayload(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SignUp(context.Background(), map[string]interface{}{
		"email":    "not-an-email",
		"password": "short",
		"role":     "superuser",
	})
	fields := apperror.FieldsOf(err)
	for _, field := range []string{"name", "email", "password", "role"} {
		if len(fields[field]) == 0 {
			t.Fatalf("expected a %s error, got %v", field, fields)
		}
	}
}

func TestSignIn_IssuesTokenPair(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, nil)

	res, err := f.svc.SignIn(context.Background(), "jamie@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	session := res.Data.(Session)
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", session)
	}
	if _, ok := session.User["password"]; ok {
		t.Fatalf("expected password masked from session user")
	}
}

func TestSignIn_WrongEmailAndWrongPasswordLookTheSame(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, nil)

	_, badPassword := f.svc.SignIn(context.Background(), "jamie@example.com", "wrong password!")
	_, badEmail := f.svc.SignIn(context.Background(), "nobody@example.com", "correct horse battery")

	for _, err := range []error{badPassword, badEmail} {
		if apperror.StatusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
		if !strings.Contains(err.Error(), "invalid credentials") {
			t.Fatalf("expected indistinguishable message, got %v", err)
		}
	}
}

func TestSignIn_RejectsArchivedAccount(t *testing.T) {
	f := newFixture(t)
	rec := f.signUp(t, nil)
	id := rec[repository.FieldID].(primitive.ObjectID).Hex()
	if _, err := f.svc.Archive(context.Background(), id); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	_, err := f.svc.SignIn(context.Background(), "jamie@example.com", "correct horse battery")
	if apperror.StatusOf(err) != http.StatusUnauthorized || !strings.Contains(err.Error(), "archived") {
		t.Fatalf("expected archived rejection, got %v", err)
	}
}

func TestRefresh_MintsAccessToken(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, nil)
	res, err := f.svc.SignIn(context.Background(), "jamie@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	session := res.Data.(Session)

	refreshed, err := f.svc.Refresh(context.Background(), session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	next := refreshed.Data.(Session)
	if next.AccessToken == "" {
		t.Fatalf("expected a fresh access token")
	}
	if next.RefreshToken != "" {
		t.Fatalf("refresh must not mint a new refresh token, got %q", next.RefreshToken)
	}
}

func TestRefresh_RejectsGarbageAndRevokedTokens(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, nil)
	res, err := f.svc.SignIn(context.Background(), "jamie@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	session := res.Data.(Session)

	if _, err := f.svc.Refresh(context.Background(), "not a jwt at all"); apperror.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed token, got %v", err)
	}

	if err := f.denylist.Revoke(context.Background(), session.RefreshToken, time.Hour); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), session.RefreshToken); apperror.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %v", err)
	}
}

func TestSignOut_RevokesForRemainingValidity(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, nil)
	res, err := f.svc.SignIn(context.Background(), "jamie@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	session := res.Data.(Session)

	if _, err := f.svc.SignOut(context.Background(), session.AccessToken); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	ttl, ok := f.denylist.revoked[session.AccessToken]
	if !ok {
		t.Fatalf("expected the token denylisted")
	}
	if ttl <= 0 || ttl > auth.AccessTokenTTL {
		t.Fatalf("expected ttl within the token validity window, got %v", ttl)
	}

	if _, err := f.svc.SignOut(context.Background(), session.AccessToken); apperror.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 signing out twice, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, nil)
	identity := &auth.Identity{Email: "jamie@example.com", Role: auth.RoleUser}

	if _, err := f.svc.ChangePassword(context.Background(), nil, "x", "long enough pw"); apperror.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %v", err)
	}
	if _, err := f.svc.ChangePassword(context.Background(), identity, "correct horse battery", "short"); apperror.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for a short password, got %v", err)
	}
	if _, err := f.svc.ChangePassword(context.Background(), identity, "wrong current", "a new password"); apperror.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong current password, got %v", err)
	}

	if _, err := f.svc.ChangePassword(context.Background(), identity, "correct horse battery", "a new password"); err != nil {
		t.Fatalf("change failed: %v", err)
	}
	if _, err := f.svc.SignIn(context.Background(), "jamie@example.com", "a new password"); err != nil {
		t.Fatalf("sign-in with the new password failed: %v", err)
	}
	if _, err := f.svc.SignIn(context.Background(), "jamie@example.com", "correct horse battery"); err == nil {
		t.Fatalf("expected the old password rejected")
	}
}

func TestFindOneAndList_MaskCredentials(t *testing.T) {
	f := newFixture(t)
	rec := f.signUp(t, nil)
	id := rec[repository.FieldID].(primitive.ObjectID).Hex()

	res, err := f.svc.FindOne(context.Background(), id)
	if err != nil {
		t.Fatalf("findOne failed: %v", err)
	}
	user := res.Data.(repository.Record)
	for _, hidden := range []string{"password", "emailVerificationToken", "resetToken"} {
		if _, ok := user[hidden]; ok {
			t.Fatalf("expected %s masked, got %v", hidden, user)
		}
	}

	list, err := f.svc.FindAll(context.Background(),
		map[string]interface{}{"page": 1, "limit": 10}, nil)
	if err != nil {
		t.Fatalf("findAll failed: %v", err)
	}
	if len(list.Data) != 1 {
		t.Fatalf("expected one listed user, got %d", len(list.Data))
	}
	if _, ok := list.Data[0]["password"]; ok {
		t.Fatalf("expected password masked in the listing")
	}
}

package accounts

import (
	"context"
	"net/http"
	"regexp"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/repository"
)

// jwtShape is a cheap pre-check before cryptographic verification.
var jwtShape = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*$`)

// Session is the payload returned by sign-in and refresh.
type Session struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken,omitempty"`
	User         repository.Record `json:"user,omitempty"`
}

// SignUp validates the payload, hashes the password and creates the
// account. A verification mail goes out best-effort.
func (s *Service) SignUp(ctx context.Context, payload map[string]interface{}) (*repository.Result, error) {
	data, err := s.signUp.Validate(ctx, payload)
	if err != nil {
		return nil, err
	}

	password, _ := data["password"].(string)
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperror.Internal("account could not be created", err)
	}
	data["password"] = hash

	if _, ok := data["role"]; !ok {
		data["role"] = string(auth.RoleUser)
	}
	data["isEmailVerified"] = false
	data["isPhoneVerified"] = false
	data["emailVerificationToken"] = s.newToken()
	data["emailVerificationTokenExpiry"] = s.now().Add(verificationTokenTTL)

	res, err := s.repo.Create(ctx, repository.Record(data))
	if err != nil {
		return nil, err
	}
	rec, _ := res.Data.(repository.Record)

	if emailAddr, ok := rec["email"].(string); ok {
		token, _ := rec["emailVerificationToken"].(string)
		s.sendVerificationMail(ctx, emailAddr, token)
	}

	return s.maskResult(res), nil
}

// SignIn checks the credentials and issues the access/refresh token
// pair. A wrong email and a wrong password are indistinguishable to
// the caller.
func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (*repository.Result, error) {
	user, err := s.userByEmail(ctx, emailAddr)
	if err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	hash, _ := user["password"].(string)
	if !auth.ComparePassword(hash, password) {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if user.Archived() {
		return nil, apperror.Unauthorized("account is archived")
	}

	identity := identityOf(user)
	accessToken, err := s.tokens.SignAccess(identity)
	if err != nil {
		return nil, apperror.Internal("session could not be created", err)
	}
	refreshToken, err := s.tokens.SignRefresh(identity)
	if err != nil {
		return nil, apperror.Internal("session could not be created", err)
	}

	return &repository.Result{
		Data: Session{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			User:         publicFields.Mask(user),
		},
		Message: "signed in successfully",
		Status:  http.StatusOK,
	}, nil
}

// Refresh verifies the refresh token and mints a short-lived access
// token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*repository.Result, error) {
	claims, err := s.verifyUsableToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.SignRefreshedAccess(claims.Identity())
	if err != nil {
		return nil, apperror.Internal("session could not be refreshed", err)
	}

	return &repository.Result{
		Data:    Session{AccessToken: accessToken},
		Message: "session refreshed successfully",
		Status:  http.StatusOK,
	}, nil
}

// SignOut denylists the token for its remaining validity window.
func (s *Service) SignOut(ctx context.Context, token string) (*repository.Result, error) {
	claims, err := s.verifyUsableToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.denylist.Revoke(ctx, token, s.tokens.RemainingValidity(claims)); err != nil {
		return nil, apperror.Internal("sign-out failed", err)
	}

	return &repository.Result{
		Message: "signed out successfully",
		Status:  http.StatusOK,
	}, nil
}

// ChangePassword swaps the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, identity *auth.Identity, current, next string) (*repository.Result, error) {
	if identity == nil {
		return nil, apperror.Unauthorized("sign in required")
	}
	if len(next) < 8 {
		return nil, apperror.BadRequest("password must be at least 8 characters")
	}

	user, err := s.userByEmail(ctx, identity.Email)
	if err != nil {
		return nil, err
	}
	hash, _ := user["password"].(string)
	if !auth.ComparePassword(hash, current) {
		return nil, apperror.Unauthorized("current password is incorrect")
	}

	newHash, err := auth.HashPassword(next)
	if err != nil {
		return nil, apperror.Internal("password could not be changed", err)
	}
	if err := s.store.UpdateOne(ctx, Collection,
		repository.Filter{"email": identity.Email},
		repository.Record{"password": newHash, repository.FieldUpdatedAt: s.now()}); err != nil {
		return nil, apperror.Internal("password could not be changed", err)
	}

	return &repository.Result{
		Message: "password changed successfully",
		Status:  http.StatusOK,
	}, nil
}

// verifyUsableToken runs the shape check, cryptographic verification
// and the denylist lookup, in that order.
func (s *Service) verifyUsableToken(ctx context.Context, token string) (*auth.Claims, error) {
	if !jwtShape.MatchString(token) {
		return nil, apperror.BadRequest("malformed token")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	revoked, err := s.denylist.IsRevoked(ctx, token)
	if err != nil {
		return nil, apperror.Internal("token check failed", err)
	}
	if revoked {
		return nil, apperror.Unauthorized("token has been revoked")
	}
	return claims, nil
}

func (s *Service) userByEmail(ctx context.Context, emailAddr string) (repository.Record, error) {
	user, err := s.store.FindOne(ctx, Collection, repository.Filter{"email": emailAddr})
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperror.NotFound("User not found")
		}
		return nil, apperror.Internal("User could not be loaded", err)
	}
	return user, nil
}

func identityOf(user repository.Record) auth.Identity {
	id := ""
	if oid, ok := user[repository.FieldID].(interface{ Hex() string }); ok {
		id = oid.Hex()
	}
	emailAddr, _ := user["email"].(string)
	role, _ := user["role"].(string)
	return auth.Identity{ID: id, Email: emailAddr, Role: auth.ParseRole(role)}
}

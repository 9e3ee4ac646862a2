package accounts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/email"
	"github.com/merchantry/merchantry/pkg/repository"
)

// SendVerificationEmail issues a fresh verification token and mails
// the link.
func (s *Service) SendVerificationEmail(ctx context.Context, emailAddr string) (*repository.Result, error) {
	user, err := s.userByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if verified, _ := user["isEmailVerified"].(bool); verified {
		return nil, apperror.BadRequest("email is already verified")
	}

	token := s.newToken()
	if err := s.store.UpdateOne(ctx, Collection,
		repository.Filter{"email": emailAddr},
		repository.Record{
			"emailVerificationToken":       token,
			"emailVerificationTokenExpiry": s.now().Add(verificationTokenTTL),
			repository.FieldUpdatedAt:      s.now(),
		}); err != nil {
		return nil, apperror.Internal("verification token could not be stored", err)
	}

	s.sendVerificationMail(ctx, emailAddr, token)

	return &repository.Result{
		Message: "verification email sent",
		Status:  http.StatusOK,
	}, nil
}

// VerifyEmail consumes a verification token.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*repository.Result, error) {
	user, err := s.store.FindOne(ctx, Collection,
		repository.Filter{"emailVerificationToken": token})
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperror.BadRequest("invalid verification token")
		}
		return nil, apperror.Internal("User could not be loaded", err)
	}
	if expired(user["emailVerificationTokenExpiry"], s.now()) {
		return nil, apperror.BadRequest("verification token has expired")
	}

	if err := s.store.UpdateOne(ctx, Collection,
		repository.Filter{"emailVerificationToken": token},
		repository.Record{
			"isEmailVerified":              true,
			"emailVerificationToken":       nil,
			"emailVerificationTokenExpiry": nil,
			repository.FieldUpdatedAt:      s.now(),
		}); err != nil {
		return nil, apperror.Internal("email could not be verified", err)
	}

	return &repository.Result{
		Message: "email verified successfully",
		Status:  http.StatusOK,
	}, nil
}

// ForgetPassword issues a reset token and mails the link. The response
// does not reveal whether the account exists.
func (s *Service) ForgetPassword(ctx context.Context, emailAddr string) (*repository.Result, error) {
	ok := &repository.Result{
		Message: "if the account exists, a reset email has been sent",
		Status:  http.StatusOK,
	}

	if _, err := s.userByEmail(ctx, emailAddr); err != nil {
		if apperror.StatusOf(err) == http.StatusNotFound {
			return ok, nil
		}
		return nil, err
	}

	token := s.newToken()
	if err := s.store.UpdateOne(ctx, Collection,
		repository.Filter{"email": emailAddr},
		repository.Record{
			"resetToken":              token,
			"resetTokenExpiry":        s.now().Add(verificationTokenTTL),
			repository.FieldUpdatedAt: s.now(),
		}); err != nil {
		return nil, apperror.Internal("reset token could not be stored", err)
	}

	s.sendMail(ctx, emailAddr, "Reset your password",
		fmt.Sprintf("Follow this link to reset your password: %s/reset-password?token=%s", s.frontendURL, token))

	return ok, nil
}

// ResetPassword consumes a reset token and stores the new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) (*repository.Result, error) {
	if len(password) < 8 {
		return nil, apperror.BadRequest("password must be at least 8 characters")
	}

	user, err := s.store.FindOne(ctx, Collection, repository.Filter{"resetToken": token})
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperror.BadRequest("invalid reset token")
		}
		return nil, apperror.Internal("User could not be loaded", err)
	}
	if expired(user["resetTokenExpiry"], s.now()) {
		return nil, apperror.BadRequest("reset token has expired")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperror.Internal("password could not be reset", err)
	}
	if err := s.store.UpdateOne(ctx, Collection,
		repository.Filter{"resetToken": token},
		repository.Record{
			"password":                hash,
			"resetToken":              nil,
			"resetTokenExpiry":        nil,
			repository.FieldUpdatedAt: s.now(),
		}); err != nil {
		return nil, apperror.Internal("password could not be reset", err)
	}

	return &repository.Result{
		Message: "password reset successfully",
		Status:  http.StatusOK,
	}, nil
}

func (s *Service) sendVerificationMail(ctx context.Context, emailAddr, token string) {
	s.sendMail(ctx, emailAddr, "Verify your email address",
		fmt.Sprintf("Follow this link to verify your email: %s/verify-email?token=%s", s.frontendURL, token))
}

// sendMail is best-effort: account flows never fail on mail delivery.
func (s *Service) sendMail(ctx context.Context, to, subject, body string) {
	if s.mailer == nil {
		return
	}
	err := s.mailer.Send(ctx, email.Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		s.logger.Warn("failed to send account email", "to", to, "subject", subject, "error", err)
	}
}

// expired reports whether a stored token expiry is in the past. A
// missing expiry counts as expired.
func expired(v interface{}, now time.Time) bool {
	switch t := v.(type) {
	case time.Time:
		return now.After(t)
	case primitive.DateTime:
		return now.After(t.Time())
	default:
		return true
	}
}

// Package accounts implements the user resource and the session flows
// built on it: sign-up, sign-in, token refresh, sign-out and the email
// verification / password reset loops.
package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/email"
	"github.com/merchantry/merchantry/pkg/observability/logger"
	"github.com/merchantry/merchantry/pkg/repository"
	"github.com/merchantry/merchantry/pkg/validation"
)

// Collection is the backing collection name.
const Collection = "users"

// verificationTokenTTL bounds email verification and password reset
// tokens.
const verificationTokenTTL = time.Hour

// publicFields is the projection every caller gets: credentials and
// tokens never leave the service.
var publicFields = repository.FieldSet{
	repository.FieldID, "name", "email", "phone", "role", "address",
	"isEmailVerified", "isPhoneVerified",
	repository.FieldArchived, repository.FieldCreatedAt, repository.FieldUpdatedAt,
}

func serializers() repository.Serializers {
	return repository.Serializers{
		Default: repository.Views{Detail: publicFields, List: publicFields},
	}
}

func signUpSchema() validation.Schema {
	return validation.Schema{
		{Name: "name", Rules: []validation.Rule{
			validation.Required(), validation.String(), validation.MaxLength(100),
		}},
		{
			Name: "email",
			Rules: []validation.Rule{
				validation.Required(), validation.Email(), validation.Unique("email"),
			},
			Messages: map[validation.Kind]string{
				validation.KindUnique: "an account with this email already exists",
			},
		},
		{Name: "phone", Rules: []validation.Rule{validation.Phone()}},
		{Name: "password", Rules: []validation.Rule{
			validation.Required(), validation.String(), validation.MinLength(8),
		}},
		{Name: "address", Rules: []validation.Rule{
			validation.String(), validation.MaxLength(500),
		}},
		{Name: "role", Rules: []validation.Rule{
			validation.Enum(string(auth.RoleAdmin), string(auth.RoleVendor), string(auth.RoleUser)),
		}},
	}
}

// Service owns the user repository and the session machinery.
type Service struct {
	repo     *repository.Repository
	signUp   *validation.Validator
	finder   validation.StoreFinder
	store    repository.Store
	tokens   *auth.TokenManager
	denylist auth.Denylist
	mailer   email.Provider
	// frontendURL is the base for the links embedded in account mail.
	frontendURL string
	logger      logger.Logger
	now         func() time.Time
	newToken    func() string
}

// Options wires the service dependencies.
type Options struct {
	Store       repository.Store
	Tokens      *auth.TokenManager
	Denylist    auth.Denylist
	Mailer      email.Provider
	FrontendURL string
	Logger      logger.Logger
}

// NewService wires the user resource against the store.
func NewService(opts Options) (*Service, error) {
	repo, err := repository.New(repository.Options{
		Label:       "User",
		Collection:  Collection,
		Store:       opts.Store,
		Serializers: serializers(),
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	finder := validation.StoreFinder{Store: opts.Store, Collection: Collection}
	return &Service{
		repo:        repo,
		signUp:      validation.New(signUpSchema(), finder),
		finder:      finder,
		store:       opts.Store,
		tokens:      opts.Tokens,
		denylist:    opts.Denylist,
		mailer:      opts.Mailer,
		frontendURL: opts.FrontendURL,
		logger:      opts.Logger,
		now:         time.Now,
		newToken:    func() string { return uuid.NewString() },
	}, nil
}

// FindOne looks a user up by id.
func (s *Service) FindOne(ctx context.Context, id string) (*repository.Result, error) {
	res, err := s.repo.FindOneWithQuery(ctx, repository.FieldID, id)
	if err != nil {
		return nil, err
	}
	return s.maskResult(res), nil
}

// Archive soft-deletes the user.
func (s *Service) Archive(ctx context.Context, id string) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	res, err := s.repo.Archive(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.maskResult(res), nil
}

// Restore brings an archived user back.
func (s *Service) Restore(ctx context.Context, id string) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	res, err := s.repo.Restore(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.maskResult(res), nil
}

// Delete hard-deletes an archived user.
func (s *Service) Delete(ctx context.Context, id string) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Delete(ctx, filter)
}

// FindArchive lists the archived users.
func (s *Service) FindArchive(ctx context.Context) (*repository.Result, error) {
	res, err := s.repo.FindArchive(ctx)
	if err != nil {
		return nil, err
	}
	if recs, ok := res.Data.([]repository.Record); ok {
		res.Data = publicFields.MaskAll(recs)
	}
	return res, nil
}

// FindAll runs the paginated listing after the page pre-check.
func (s *Service) FindAll(ctx context.Context, values map[string]interface{}, query map[string]string) (*repository.ListResult, error) {
	page, limit, err := validation.ValidateListRequest(ctx, s.finder, values)
	if err != nil {
		return nil, err
	}
	res, err := s.repo.FindAll(ctx, repository.NewListQuery(page, limit, query))
	if err != nil {
		return nil, err
	}
	res.Data = publicFields.MaskAll(res.Data)
	return res, nil
}

func (s *Service) maskResult(res *repository.Result) *repository.Result {
	if rec, ok := res.Data.(repository.Record); ok {
		res.Data = publicFields.Mask(rec)
	}
	return res
}

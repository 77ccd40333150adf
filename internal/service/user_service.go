package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"ideasplace/internal/auth"
	"ideasplace/internal/cache"
	"ideasplace/internal/errors"
	"ideasplace/internal/metrics"
	"ideasplace/internal/model"
	"ideasplace/internal/repository"
)

const (
	bcryptCost   = 10
	userCacheTTL = 5 * time.Minute

	maxUsernameLength = 150
	maxEmailLength    = 254
	maxNameLength     = 150

	msgRequired      = "This field is required."
	msgBlank         = "This field may not be blank."
	msgUsernameTaken = "A user with that username already exists."
	msgEmailTaken    = "user with this email address already exists."
	msgBadUsername   = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgBadEmail      = "Enter a valid email address."
	msgCannotCreate  = "DB ERROR. Cannot create new user"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// SignupInput carries the registration fields. Nil means the field was absent.
type SignupInput struct {
	Username  *string
	Email     *string
	Password  *string
	FirstName string
	LastName  string
}

// Profile is a user's public view. Email is set only when the requester
// is the subject.
type Profile struct {
	Username string
	Email    *string
	IdeaIDs  []uint
}

// UserService exposes registration and profile operations.
type UserService interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	Profile(ctx context.Context, id, requesterID uint) (*Profile, error)
}

type userService struct {
	repo       repository.UserRepository
	ideas      repository.IdeaRepository
	activation ActivationService
	passwords  *PasswordValidator
	validate   *validator.Validate
	cache      *cache.Client
	logger     *slog.Logger
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(
	repo repository.UserRepository,
	ideas repository.IdeaRepository,
	activation ActivationService,
	cache *cache.Client,
	logger *slog.Logger,
) UserService {
	return &userService{
		repo:       repo,
		ideas:      ideas,
		activation: activation,
		passwords:  NewPasswordValidator(),
		validate:   validator.New(),
		cache:      cache,
		logger:     logger,
	}
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// Signup registers an inactive user and mails the activation link. The user
// row is rolled back when the mail cannot be sent.
func (s *userService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	user, err := s.validateSignup(ctx, in)
	if err != nil {
		metrics.SignupsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, err
	}

	hashed, err := auth.HashPassword(*in.Password, bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hashed

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.NewValidationError(errors.NonFieldErrors, msgCannotCreate)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return s.activation.SendActivation(ctx, user)
	})
	if err != nil {
		metrics.SignupsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, err
	}

	metrics.SignupsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)), slog.String("username", user.Username))
	return user, nil
}

func (s *userService) validateSignup(ctx context.Context, in SignupInput) (*model.User, error) {
	verr := &errors.ValidationError{}

	username := requiredString(verr, "username", in.Username)
	if username != "" {
		switch {
		case len([]rune(username)) > maxUsernameLength:
			verr.Add("username", fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameLength))
		case !usernamePattern.MatchString(username):
			verr.Add("username", msgBadUsername)
		}
	}

	address := requiredString(verr, "email", in.Email)
	if address != "" {
		switch {
		case len(address) > maxEmailLength:
			verr.Add("email", fmt.Sprintf("Ensure this field has no more than %d characters.", maxEmailLength))
		case s.validate.Var(address, "email") != nil:
			verr.Add("email", msgBadEmail)
		}
	}

	password := requiredString(verr, passwordField, in.Password)
	checkLength(verr, "first_name", in.FirstName, maxNameLength)
	checkLength(verr, "last_name", in.LastName, maxNameLength)

	user := &model.User{
		Username:  username,
		Email:     address,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	if username != "" && verr.Fields["username"] == nil {
		if _, err := s.repo.FindByUsername(ctx, username); err == nil {
			verr.Add("username", msgUsernameTaken)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check username: %w", err)
		}
	}
	if address != "" && verr.Fields["email"] == nil {
		if _, err := s.repo.FindByEmail(ctx, address); err == nil {
			verr.Add("email", msgEmailTaken)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
	}

	if password != "" {
		var perr *errors.ValidationError
		if err := s.passwords.Validate(password, user); errors.As(err, &perr) {
			for _, msg := range perr.Fields[passwordField] {
				verr.Add(passwordField, msg)
			}
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return user, nil
}

func requiredString(verr *errors.ValidationError, field string, value *string) string {
	if value == nil {
		verr.Add(field, msgRequired)
		return ""
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		verr.Add(field, msgBlank)
	}
	return v
}

func checkLength(verr *errors.ValidationError, field, value string, max int) {
	if len([]rune(value)) > max {
		verr.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
}

// GetUser returns the user record, served from cache when possible.
func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, userCacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	_ = s.cache.SetJSON(ctx, userCacheKey(id), user, userCacheTTL)
	return user, nil
}

// Profile returns the full profile when requesterID is the subject and the
// short one otherwise.
func (s *userService) Profile(ctx context.Context, id, requesterID uint) (*Profile, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	ideaIDs, err := s.ideas.ListIDsByAuthor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}

	profile := &Profile{Username: user.Username, IdeaIDs: ideaIDs}
	if id == requesterID {
		address := user.Email
		profile.Email = &address
	}
	return profile, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/authboot/internal/client/metrics"
	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/authboot/internal/clock"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/dmitrijs2005/authboot/internal/logging"
	"github.com/go-playground/validator/v10"
)

const (
	usernamePrefix     = "user"
	usernameIDChars    = 8
	defaultDisplayName = "User"
)

// ErrAvatarStorageDisabled is returned by SetAvatar when no avatar store is
// configured.
var ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")

// AvatarUploader puts an avatar image somewhere public and returns its URL.
type AvatarUploader interface {
	Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error)
}

// ProfileService provisions and edits user profiles.
//
// EnsureProfile and EnsureProfileFor never return an error: a profile that
// cannot be provisioned is logged and reported as nil, and authentication
// carries on without it. Both are idempotent and safe to call concurrently
// for the same user.
type ProfileService interface {
	EnsureProfile(ctx context.Context, userID, emailHint string) *models.Profile
	EnsureProfileFor(ctx context.Context, user models.UserIdentity) *models.Profile
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.Profile, error)
	SetAvatar(ctx context.Context, userID string, upload models.AvatarUpload) (*models.Profile, error)
}

type profileService struct {
	repo     profiles.Repository
	avatars  AvatarUploader
	validate *validator.Validate
	clock    clock.Clock
	metrics  metrics.Recorder
	log      logging.Logger
}

// NewProfileService builds a ProfileService over repo. avatars may be nil,
// in which case SetAvatar fails with ErrAvatarStorageDisabled.
func NewProfileService(repo profiles.Repository, avatars AvatarUploader, log logging.Logger, m metrics.Recorder, c clock.Clock) ProfileService {
	if log == nil {
		log = logging.Discard()
	}
	if m == nil {
		m = metrics.Nop{}
	}
	if c == nil {
		c = clock.Real{}
	}
	return &profileService{
		repo:     repo,
		avatars:  avatars,
		validate: validator.New(),
		clock:    c,
		metrics:  m,
		log:      log.With("module", "profiles"),
	}
}

// DefaultUsername is "user" followed by the first eight characters of the
// user id, lowercased.
func DefaultUsername(userID string) string {
	prefix := userID
	if utf8.RuneCountInString(prefix) > usernameIDChars {
		prefix = string([]rune(prefix)[:usernameIDChars])
	}
	return strings.ToLower(usernamePrefix + prefix)
}

// fallbackUsername is used when the default username already belongs to
// another user. The full id is unique, so this one cannot clash.
func fallbackUsername(userID string) string {
	return strings.ToLower(usernamePrefix + strings.ReplaceAll(userID, "-", ""))
}

// DisplayNameFromEmail returns the local part of email, or "User".
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return defaultDisplayName
	}
	return local
}

func (s *profileService) EnsureProfile(ctx context.Context, userID, emailHint string) *models.Profile {
	return s.ensure(ctx, userID, DefaultUsername(userID), DisplayNameFromEmail(emailHint))
}

// EnsureProfileFor prefers the username and display name the user chose at
// sign-up.
func (s *profileService) EnsureProfileFor(ctx context.Context, user models.UserIdentity) *models.Profile {
	username := strings.ToLower(user.MetadataString("username"))
	if username == "" {
		username = DefaultUsername(user.ID)
	}
	displayName := user.MetadataString("display_name")
	if displayName == "" {
		displayName = DisplayNameFromEmail(user.Email)
	}
	return s.ensure(ctx, user.ID, username, displayName)
}

func (s *profileService) ensure(ctx context.Context, userID, username, displayName string) *models.Profile {
	log := s.log.With("user_id", userID)

	if userID == "" {
		s.fail(ctx, log, errors.New("empty user id"))
		return nil
	}

	p, err := s.repo.GetByID(ctx, userID)
	if err == nil {
		s.metrics.RecordProvision(metrics.ProvisionExisting)
		return p
	}
	if !errors.Is(err, common.ErrorNotFound) {
		s.fail(ctx, log, err)
		return nil
	}

	now := s.clock.Now()
	p = &models.Profile{
		ID:          userID,
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.create(ctx, log, p)
	if err != nil {
		s.fail(ctx, log, err)
		return nil
	}
	return created
}

// create inserts p. A conflict means either another caller created the same
// profile first (the row is re-read and returned) or the username belongs to
// someone else (one retry with the fallback username).
func (s *profileService) create(ctx context.Context, log logging.Logger, p *models.Profile) (*models.Profile, error) {
	for {
		created, err := s.repo.Create(ctx, p)
		if err == nil {
			s.metrics.RecordProvision(metrics.ProvisionCreated)
			log.Info(ctx, "profile created", "username", created.Username)
			return created, nil
		}
		if !errors.Is(err, common.ErrConflict) {
			return nil, err
		}

		existing, gerr := s.repo.GetByID(ctx, p.ID)
		if gerr == nil {
			s.metrics.RecordProvision(metrics.ProvisionRace)
			log.Debug(ctx, "profile created concurrently, using existing row")
			return existing, nil
		}
		if !errors.Is(gerr, common.ErrorNotFound) {
			return nil, gerr
		}

		fallback := fallbackUsername(p.ID)
		if p.Username == fallback {
			return nil, err
		}
		log.Warn(ctx, "username taken, using fallback", "username", p.Username, "fallback", fallback)
		p.Username = fallback
	}
}

func (s *profileService) fail(ctx context.Context, log logging.Logger, err error) {
	s.metrics.RecordProvision(metrics.ProvisionFailed)
	log.Error(ctx, "profile provisioning failed", "error", fmt.Errorf("%w: %w", common.ErrProfileProvision, err))
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.Profile, error) {
	if upd.DisplayName != nil {
		v := strings.TrimSpace(*upd.DisplayName)
		upd.DisplayName = &v
	}
	if upd.Bio != nil {
		v := strings.TrimSpace(*upd.Bio)
		upd.Bio = &v
	}
	if err := s.validate.Struct(upd); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.DisplayName != nil {
		p.DisplayName = *upd.DisplayName
	}
	if upd.Bio != nil {
		if *upd.Bio == "" {
			p.Bio = nil
		} else {
			p.Bio = upd.Bio
		}
	}
	p.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *profileService) SetAvatar(ctx context.Context, userID string, upload models.AvatarUpload) (*models.Profile, error) {
	if s.avatars == nil {
		return nil, ErrAvatarStorageDisabled
	}
	if err := s.validate.Struct(upload); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.avatars.Upload(ctx, userID, upload.Data, upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("avatar upload: %w", err)
	}

	p.AvatarURL = &url
	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "avatar updated", "user_id", userID)
	return p, nil
}

// Package profiles manages user profiles: registration, lookup, display
// name and photo changes.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"masterboxer.com/project-spoque/clock"
	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

const (
	MaxPhotoBytes  = 5 << 20
	SearchLimit    = 20
	maxQueryLength = 50
)

// ErrProfileRequired means the user has no profile and none could be
// derived from their sign-in identity.
var ErrProfileRequired = errors.New("profile required")

// Photo is an uploaded profile picture.
type Photo struct {
	Data        []byte
	ContentType string
}

func (p *Photo) validate() error {
	if len(p.Data) == 0 {
		return models.Invalid("photo is empty")
	}
	if len(p.Data) > MaxPhotoBytes {
		return models.Invalid("photo must be at most %d bytes", MaxPhotoBytes)
	}
	if !strings.HasPrefix(p.ContentType, "image/") {
		return models.Invalid("photo must be an image")
	}
	return nil
}

type Service struct {
	users store.UserRepo
	blobs store.BlobRepo
	clock clock.Clock
}

func NewService(users store.UserRepo, blobs store.BlobRepo, c clock.Clock) *Service {
	return &Service{users: users, blobs: blobs, clock: c}
}

// Register creates the profile for uid. An empty display name defaults to
// the username.
func (s *Service) Register(ctx context.Context, uid, username, displayName, email string) (*models.User, error) {
	if uid == "" {
		return nil, models.Invalid("user id is required")
	}
	username = models.NormalizeUsername(username)
	if err := models.ValidateUsername(username); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}
	if err := models.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	u := &models.User{
		ID:          uid,
		Username:    username,
		DisplayName: displayName,
		Email:       email,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	log.Printf("[Profiles] Registered %s as @%s", uid, username)
	return u, nil
}

func (s *Service) Get(ctx context.Context, uid string) (*models.User, error) {
	return s.users.GetUser(ctx, uid)
}

func (s *Service) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetUserByUsername(ctx, models.NormalizeUsername(username))
}

// Ensure returns uid's profile, creating one from the sign-in identity if
// none exists yet. The suggested username must be valid and free,
// otherwise ErrProfileRequired is returned and the user has to Register.
func (s *Service) Ensure(ctx context.Context, uid, suggested, photoURL, email string) (*models.User, error) {
	u, err := s.users.GetUser(ctx, uid)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	username := models.NormalizeUsername(suggested)
	if models.ValidateUsername(username) != nil {
		return nil, fmt.Errorf("%w: %q is not a usable username", ErrProfileRequired, suggested)
	}

	u = &models.User{
		ID:          uid,
		Username:    username,
		DisplayName: username,
		PhotoURL:    photoURL,
		Email:       email,
	}
	err = s.users.CreateUser(ctx, u)
	switch {
	case errors.Is(err, store.ErrUserExists):
		// lost a race with a concurrent request for the same user
		return s.users.GetUser(ctx, uid)
	case errors.Is(err, store.ErrUsernameTaken):
		return nil, fmt.Errorf("%w: %w", ErrProfileRequired, err)
	case err != nil:
		return nil, err
	}

	log.Printf("[Profiles] Provisioned %s as @%s", uid, username)
	return u, nil
}

// PhotoKey returns the object path for a profile photo uploaded now.
func (s *Service) PhotoKey(uid string) string {
	return fmt.Sprintf("profiles/%s/avatar-%d", uid, s.clock.Now().UnixMilli())
}

// Update changes the display name and/or photo. The photo is stored
// before the profile is touched.
func (s *Service) Update(ctx context.Context, uid string, displayName *string, photo *Photo) (*models.User, error) {
	var upd models.ProfileUpdate
	if displayName != nil {
		name := strings.TrimSpace(*displayName)
		if err := models.ValidateDisplayName(name); err != nil {
			return nil, err
		}
		upd.DisplayName = &name
	}
	if photo != nil {
		if err := photo.validate(); err != nil {
			return nil, err
		}
	}
	if upd.Empty() && photo == nil {
		return nil, models.Invalid("no fields provided for update")
	}

	if _, err := s.users.GetUser(ctx, uid); err != nil {
		return nil, err
	}

	if photo != nil {
		ref, err := s.blobs.PutBlob(ctx, s.PhotoKey(uid), photo.ContentType, photo.Data)
		if err != nil {
			return nil, fmt.Errorf("store photo: %w", err)
		}
		upd.PhotoURL = &ref
	}

	u, err := s.users.UpdateUser(ctx, uid, upd)
	if err != nil {
		return nil, err
	}
	log.Printf("[Profiles] Updated profile %s", uid)
	return u, nil
}

// Search returns up to SearchLimit profiles for query, truncated to 50
// characters.
func (s *Service) Search(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.Invalid("search query is required")
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		query = string([]rune(query)[:maxQueryLength])
	}
	return s.users.SearchUsers(ctx, query, SearchLimit)
}

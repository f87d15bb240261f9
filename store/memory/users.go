package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, store.ErrUserExists)
	}
	if _, ok := s.usernames[u.Username]; ok {
		return fmt.Errorf("username %s: %w", u.Username, store.ErrUsernameTaken)
	}

	stored := *u
	stored.CreatedAt = s.clock.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	s.users[u.ID] = stored
	s.usernames[u.Username] = u.ID

	u.CreatedAt, u.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, fmt.Errorf("username %s: %w", username, store.ErrNotFound)
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.PhotoURL != nil {
		u.PhotoURL = *upd.PhotoURL
	}
	if !upd.Empty() {
		u.UpdatedAt = s.clock.Now().UTC()
	}
	s.users[id] = u
	return &u, nil
}

// SearchUsers matches substrings of the username or display name. Prefix
// matches rank first, then shorter usernames.
func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	q := strings.ToLower(query)

	s.mu.RLock()
	out := []models.User{}
	for _, u := range s.users {
		display := strings.ToLower(u.DisplayName)
		if strings.Contains(u.Username, q) || strings.Contains(display, q) {
			out = append(out, u)
		}
	}
	s.mu.RUnlock()

	rank := func(u models.User) int {
		r := 2
		if strings.HasPrefix(u.Username, q) {
			r--
		}
		if strings.HasPrefix(strings.ToLower(u.DisplayName), q) {
			r--
		}
		return r
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		if len(out[i].Username) != len(out[j].Username) {
			return len(out[i].Username) < len(out[j].Username)
		}
		return out[i].Username < out[j].Username
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

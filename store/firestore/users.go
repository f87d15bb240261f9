package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

const usersCollection = "users"

type userDoc struct {
	Email       string    `firestore:"email"`
	Username    string    `firestore:"username"`
	DisplayName string    `firestore:"displayName"`
	PhotoURL    string    `firestore:"photoURL"`
	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time `firestore:"updatedAt,serverTimestamp"`
}

// CreateUser checks the username and creates the profile document in one
// transaction.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	users := s.client.Collection(usersCollection)
	ref := users.Doc(u.ID)
	doc := userDoc{
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		taken, err := tx.Documents(users.Where("username", "==", u.Username).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return fmt.Errorf("username %s: %w", u.Username, store.ErrUsernameTaken)
		}
		return tx.Create(ref, doc)
	})
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		return err
	case status.Code(err) == codes.AlreadyExists:
		return fmt.Errorf("user %s: %w", u.ID, store.ErrUserExists)
	case err != nil:
		return fmt.Errorf("create user %s: %w", u.ID, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("user %s", id), err)
	}
	return decodeUser(snap)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := s.queryUsers(ctx, s.client.Collection(usersCollection).
		Where("username", "==", username).
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("username %s: %w", username, store.ErrNotFound)
	}
	return &users[0], nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	ref := s.client.Collection(usersCollection).Doc(id)
	if updates := profileUpdates(upd); len(updates) > 0 {
		if _, err := ref.Update(ctx, updates); err != nil {
			return nil, mapErr(fmt.Sprintf("user %s", id), err)
		}
	}
	return s.GetUser(ctx, id)
}

// SearchUsers is a username prefix match; Firestore has no substring
// queries.
func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	q := models.NormalizeUsername(query)
	return s.queryUsers(ctx, s.client.Collection(usersCollection).
		Where("username", ">=", q).
		Where("username", "<=", q+"\uf8ff").
		OrderBy("username", fs.Asc).
		Limit(limit))
}

func profileUpdates(upd models.ProfileUpdate) []fs.Update {
	if upd.Empty() {
		return nil
	}
	updates := []fs.Update{{Path: "updatedAt", Value: fs.ServerTimestamp}}
	if upd.DisplayName != nil {
		updates = append(updates, fs.Update{Path: "displayName", Value: *upd.DisplayName})
	}
	if upd.PhotoURL != nil {
		updates = append(updates, fs.Update{Path: "photoURL", Value: *upd.PhotoURL})
	}
	return updates
}

func (s *Store) queryUsers(ctx context.Context, q fs.Query) ([]models.User, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	users := []models.User{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query users: %w", err)
		}
		u, err := decodeUser(snap)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func decodeUser(snap *fs.DocumentSnapshot) (*models.User, error) {
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	return doc.toModel(snap.Ref.ID), nil
}

func (d userDoc) toModel(id string) *models.User {
	return &models.User{
		ID:          id,
		Username:    d.Username,
		DisplayName: d.DisplayName,
		PhotoURL:    d.PhotoURL,
		Email:       d.Email,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

const (
	userColumns        = `id, username, display_name, photo_url, email, created_at, updated_at`
	usernameConstraint = "users_username_key"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, display_name, photo_url, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at`,
		u.ID, u.Username, u.DisplayName, u.PhotoURL, u.Email,
	).Scan(&u.CreatedAt, &u.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == usernameConstraint {
			return fmt.Errorf("username %s: %w", u.Username, store.ErrUsernameTaken)
		}
		return fmt.Errorf("user %s: %w", u.ID, store.ErrUserExists)
	}
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.ID, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUserRow(row, "user "+id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUserRow(row, "username "+username)
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Empty() {
		return s.GetUser(ctx, id)
	}

	query, args := updateUserQuery(id, upd)
	row := s.db.QueryRowContext(ctx, query, args...)
	return scanUserRow(row, "user "+id)
}

// updateUserQuery sets only the fields present in upd.
func updateUserQuery(id string, upd models.ProfileUpdate) (string, []interface{}) {
	setClauses := []string{}
	args := []interface{}{}
	i := 1

	if upd.DisplayName != nil {
		setClauses = append(setClauses, "display_name = $"+strconv.Itoa(i))
		args = append(args, *upd.DisplayName)
		i++
	}
	if upd.PhotoURL != nil {
		setClauses = append(setClauses, "photo_url = $"+strconv.Itoa(i))
		args = append(args, *upd.PhotoURL)
		i++
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	query := "UPDATE users SET " + strings.Join(setClauses, ", ") +
		" WHERE id = $" + strconv.Itoa(i) +
		" RETURNING " + userColumns
	return query, append(args, id)
}

func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username ILIKE $1 OR display_name ILIKE $1
		ORDER BY
			CASE WHEN username ILIKE $2 THEN 0 ELSE 1 END +
			CASE WHEN display_name ILIKE $2 THEN 0 ELSE 1 END,
			LENGTH(username),
			username
		LIMIT $3`,
		"%"+query+"%", query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanUserRow(row scanner, what string) (*models.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	return u, nil
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.DisplayName,
		&u.PhotoURL,
		&u.Email,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

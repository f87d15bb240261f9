// Package postgres backs the repositories with a Postgres database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

const uniqueViolation = "23505"

const postColumns = `id, user_id, username, user_photo_url, audio_url, caption,
	prompt_id, prompt, date, likes, liked_by, created_at`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetPrompt(ctx context.Context, date string) (*models.DailyPrompt, error) {
	var p models.DailyPrompt
	err := s.db.QueryRowContext(ctx, `
		SELECT date, prompt, date, created_at, created_by
		FROM prompts
		WHERE date = $1`,
		date,
	).Scan(&p.ID, &p.Text, &p.Date, &p.CreatedAt, &p.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prompt %s: %w", date, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt %s: %w", date, err)
	}
	return &p, nil
}

func (s *Store) PutPrompt(ctx context.Context, p *models.DailyPrompt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompts (date, prompt, created_at, created_by)
		VALUES ($1, $2, NOW(), $3)
		ON CONFLICT (date) DO UPDATE
		SET prompt = EXCLUDED.prompt,
		    created_at = EXCLUDED.created_at,
		    created_by = EXCLUDED.created_by`,
		p.Date, p.Text, p.CreatedBy)
	if err != nil {
		return fmt.Errorf("put prompt %s: %w", p.Date, err)
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p *models.Post) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spoques (id, user_id, username, user_photo_url, audio_url,
		                     caption, prompt_id, prompt, date, likes, liked_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, '{}', NOW())`,
		id, p.AuthorID, p.AuthorUsername, p.AuthorPhotoRef, p.AudioRef,
		p.Caption, p.PromptID, p.PromptText, p.Date)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("spoque for %s on %s: %w", p.AuthorID, p.Date, store.ErrDuplicatePost)
	}
	if err != nil {
		return "", fmt.Errorf("insert spoque: %w", err)
	}
	return id, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM spoques WHERE id = $1`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("spoque %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get spoque %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) ListPostsByDate(ctx context.Context, date string) ([]models.Post, error) {
	return s.list(ctx, `
		SELECT `+postColumns+`
		FROM spoques
		WHERE date = $1
		ORDER BY created_at DESC, seq DESC`, date)
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return s.list(ctx, `
		SELECT `+postColumns+`
		FROM spoques
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC`, authorID)
}

func (s *Store) AuthorPostedOn(ctx context.Context, authorID, date string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM spoques WHERE user_id = $1 AND date = $2)`,
		authorID, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check spoque for %s on %s: %w", authorID, date, err)
	}
	return exists, nil
}

// ApplyLike changes the counter and the like set in a single statement.
// Unlikes floor the counter at zero.
func (s *Store) ApplyLike(ctx context.Context, postID, userID string, like bool) error {
	query := `
		UPDATE spoques
		SET likes = likes + 1,
		    liked_by = CASE WHEN $2::text = ANY(liked_by) THEN liked_by ELSE array_append(liked_by, $2::text) END
		WHERE id = $1`
	if !like {
		query = `
		UPDATE spoques
		SET likes = GREATEST(likes - 1, 0),
		    liked_by = array_remove(liked_by, $2)
		WHERE id = $1`
	}

	res, err := s.db.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return fmt.Errorf("update likes on %s: %w", postID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update likes on %s: %w", postID, err)
	}
	if n == 0 {
		return fmt.Errorf("spoque %s: %w", postID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, arg string) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query spoques: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spoque: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spoques: %w", err)
	}
	return posts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*models.Post, error) {
	var (
		p       models.Post
		likedBy pq.StringArray
	)
	if err := row.Scan(
		&p.ID,
		&p.AuthorID,
		&p.AuthorUsername,
		&p.AuthorPhotoRef,
		&p.AudioRef,
		&p.Caption,
		&p.PromptID,
		&p.PromptText,
		&p.Date,
		&p.LikeCount,
		&likedBy,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.LikedBy = models.NewUserSet(likedBy...)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

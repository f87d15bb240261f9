// Package firestore backs the repositories with Cloud Firestore and
// Firebase Storage.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

const (
	promptsCollection = "prompts"
	spoquesCollection = "spoques"
)

type promptDoc struct {
	Prompt    string    `firestore:"prompt"`
	Date      string    `firestore:"date"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp"`
	CreatedBy string    `firestore:"createdBy"`
}

type spoqueDoc struct {
	UserID       string    `firestore:"userId"`
	Username     string    `firestore:"username"`
	UserPhotoURL string    `firestore:"userPhotoURL"`
	AudioURL     string    `firestore:"audioURL"`
	Caption      string    `firestore:"caption"`
	PromptID     string    `firestore:"promptId"`
	Prompt       string    `firestore:"prompt"`
	Date         string    `firestore:"date"`
	Likes        int       `firestore:"likes"`
	LikedBy      []string  `firestore:"likedBy"`
	CreatedAt    time.Time `firestore:"createdAt,serverTimestamp"`
}

// Store implements store.PromptRepo, store.PostRepo and store.UserRepo on
// Firestore.
type Store struct {
	client *fs.Client
}

func New(client *fs.Client) *Store {
	return &Store{client: client}
}

// postDocID is the deterministic document id for an author's post on a
// day. Creating it with Create makes the (author, date) pair unique.
func postDocID(authorID, date string) string {
	return date + "_" + authorID
}

func (s *Store) GetPrompt(ctx context.Context, date string) (*models.DailyPrompt, error) {
	snap, err := s.client.Collection(promptsCollection).Doc(date).Get(ctx)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("prompt %s", date), err)
	}
	var doc promptDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode prompt %s: %w", date, err)
	}
	return doc.toModel(snap.Ref.ID), nil
}

func (s *Store) PutPrompt(ctx context.Context, p *models.DailyPrompt) error {
	doc := promptDoc{
		Prompt:    p.Text,
		Date:      p.Date,
		CreatedAt: p.CreatedAt,
		CreatedBy: p.CreatedBy,
	}
	if _, err := s.client.Collection(promptsCollection).Doc(p.Date).Set(ctx, doc); err != nil {
		return fmt.Errorf("set prompt %s: %w", p.Date, err)
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p *models.Post) (string, error) {
	id := postDocID(p.AuthorID, p.Date)
	doc := spoqueDoc{
		UserID:       p.AuthorID,
		Username:     p.AuthorUsername,
		UserPhotoURL: p.AuthorPhotoRef,
		AudioURL:     p.AudioRef,
		Caption:      p.Caption,
		PromptID:     p.PromptID,
		Prompt:       p.PromptText,
		Date:         p.Date,
		Likes:        0,
		LikedBy:      []string{},
	}

	if _, err := s.client.Collection(spoquesCollection).Doc(id).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return "", fmt.Errorf("spoque %s: %w", id, store.ErrDuplicatePost)
		}
		return "", fmt.Errorf("create spoque %s: %w", id, err)
	}
	return id, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	snap, err := s.client.Collection(spoquesCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("spoque %s", id), err)
	}
	return decodePost(snap)
}

func (s *Store) ListPostsByDate(ctx context.Context, date string) ([]models.Post, error) {
	q := s.client.Collection(spoquesCollection).
		Where("date", "==", date).
		OrderBy("createdAt", fs.Desc)
	return s.query(ctx, q)
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	q := s.client.Collection(spoquesCollection).
		Where("userId", "==", authorID).
		OrderBy("createdAt", fs.Desc)
	return s.query(ctx, q)
}

func (s *Store) AuthorPostedOn(ctx context.Context, authorID, date string) (bool, error) {
	_, err := s.client.Collection(spoquesCollection).Doc(postDocID(authorID, date)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check spoque for %s on %s: %w", authorID, date, err)
	}
	return true, nil
}

// ApplyLike sends the counter and set changes as one document update. A
// like is a blind increment; an unlike runs in a transaction so the
// counter can be floored at zero.
func (s *Store) ApplyLike(ctx context.Context, postID, userID string, like bool) error {
	ref := s.client.Collection(spoquesCollection).Doc(postID)

	var err error
	if like {
		_, err = ref.Update(ctx, likeUpdates(userID))
	} else {
		err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
			snap, err := tx.Get(ref)
			if err != nil {
				return err
			}
			var doc spoqueDoc
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode spoque %s: %w", postID, err)
			}
			return tx.Update(ref, unlikeUpdates(userID, doc.Likes))
		})
	}
	if err != nil {
		return mapErr(fmt.Sprintf("spoque %s", postID), err)
	}
	return nil
}

func likeUpdates(userID string) []fs.Update {
	return []fs.Update{
		{Path: "likes", Value: fs.Increment(1)},
		{Path: "likedBy", Value: fs.ArrayUnion(userID)},
	}
}

func unlikeUpdates(userID string, current int) []fs.Update {
	next := current - 1
	if next < 0 {
		next = 0
	}
	return []fs.Update{
		{Path: "likes", Value: next},
		{Path: "likedBy", Value: fs.ArrayRemove(userID)},
	}
}

func (s *Store) query(ctx context.Context, q fs.Query) ([]models.Post, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	posts := []models.Post{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query spoques: %w", err)
		}
		p, err := decodePost(snap)
		if err != nil {
			log.Printf("[Firestore] Skipping spoque %s: %v", snap.Ref.ID, err)
			continue
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

func decodePost(snap *fs.DocumentSnapshot) (*models.Post, error) {
	var doc spoqueDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode spoque %s: %w", snap.Ref.ID, err)
	}
	return doc.toModel(snap.Ref.ID), nil
}

func (d promptDoc) toModel(id string) *models.DailyPrompt {
	return &models.DailyPrompt{
		ID:        id,
		Text:      d.Prompt,
		Date:      d.Date,
		CreatedAt: d.CreatedAt,
		CreatedBy: d.CreatedBy,
	}
}

func (d spoqueDoc) toModel(id string) *models.Post {
	return &models.Post{
		ID:             id,
		AuthorID:       d.UserID,
		AuthorUsername: d.Username,
		AuthorPhotoRef: d.UserPhotoURL,
		AudioRef:       d.AudioURL,
		Caption:        d.Caption,
		PromptID:       d.PromptID,
		PromptText:     d.Prompt,
		Date:           d.Date,
		LikeCount:      d.Likes,
		LikedBy:        models.NewUserSet(d.LikedBy...),
		CreatedAt:      d.CreatedAt,
	}
}

func mapErr(what string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

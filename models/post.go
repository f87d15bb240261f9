package models

import (
	"encoding/json"
	"sort"
	"time"
)

// MaxCaptionLength bounds Post.Caption, counted in characters.
const MaxCaptionLength = 200

// AudioContentType is the content type of every stored clip.
const AudioContentType = "audio/webm"

// Post is one user's daily audio submission (a "Spoque").
type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"user_id"`
	AuthorUsername string    `json:"username"`
	AuthorPhotoRef string    `json:"user_photo_url,omitempty"`
	AudioRef       string    `json:"audio_url"`
	Caption        string    `json:"caption,omitempty"`
	PromptID       string    `json:"prompt_id"`
	PromptText     string    `json:"prompt_text"`
	Date           string    `json:"date"`
	LikeCount      int       `json:"likes"`
	LikedBy        UserSet   `json:"liked_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// LikedByUser reports whether userID is in the post's like set.
func (p *Post) LikedByUser(userID string) bool {
	return p.LikedBy.Has(userID)
}

// UserSet is a set of user ids. The zero value is an empty set ready to
// use.
type UserSet map[string]struct{}

// NewUserSet builds a set from ids, dropping duplicates.
func NewUserSet(ids ...string) UserSet {
	s := make(UserSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s UserSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id and reports whether it was newly added. A nil set is
// allocated on first use.
func (s *UserSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	if *s == nil {
		*s = make(UserSet)
	}
	(*s)[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (s UserSet) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s, id)
	return true
}

func (s UserSet) Len() int {
	return len(s)
}

// Slice returns the members in sorted order.
func (s UserSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s UserSet) Clone() UserSet {
	c := make(UserSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

func (s UserSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *UserSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewUserSet(ids...)
	return nil
}

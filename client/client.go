// Package client talks to the spoque HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/recorder"
)

// ErrDailyLimit is returned when the server refuses a second post today.
var ErrDailyLimit = errors.New("daily post limit reached")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Spoque is a post as the API presents it.
type Spoque struct {
	models.Post
	ShareURL  string `json:"share_url"`
	LikedByMe bool   `json:"liked_by_me"`
}

type Feed struct {
	Date        string              `json:"date"`
	Prompt      *models.DailyPrompt `json:"prompt"`
	Spoques     []Spoque            `json:"spoques"`
	PostedToday bool                `json:"posted_today"`
}

func (c *Client) TodaysFeed(ctx context.Context) (*Feed, error) {
	var f Feed
	if err := c.do(ctx, http.MethodGet, "/spoques/today", nil, "", &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) SpoquesOn(ctx context.Context, date string) ([]Spoque, error) {
	var out []Spoque
	if err := c.do(ctx, http.MethodGet, "/spoques/date/"+date, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Prompt returns the prompt for date ("today" works), or nil if unset.
func (c *Client) Prompt(ctx context.Context, date string) (*models.DailyPrompt, error) {
	var p models.DailyPrompt
	found := false
	err := c.doFunc(ctx, http.MethodGet, "/prompts/"+date, nil, "", func(resp *http.Response) error {
		if resp.StatusCode == http.StatusNoContent {
			return nil
		}
		found = true
		return json.NewDecoder(resp.Body).Decode(&p)
	})
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (c *Client) SetPrompt(ctx context.Context, date, text string) (*models.DailyPrompt, error) {
	body, err := json.Marshal(map[string]string{"prompt": text})
	if err != nil {
		return nil, err
	}
	var p models.DailyPrompt
	if err := c.do(ctx, http.MethodPut, "/prompts/"+date, bytes.NewReader(body), "application/json", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upload posts a finalized clip as today's spoque and returns its id and
// share link.
func (c *Client) Upload(ctx context.Context, clip *recorder.Clip, caption string) (string, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("audio", "spoque.webm")
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(part, clip.Reader()); err != nil {
		return "", "", err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return "", "", err
		}
	}
	if err := mw.WriteField("duration_ms", strconv.FormatInt(clip.Duration.Milliseconds(), 10)); err != nil {
		return "", "", err
	}
	if err := mw.Close(); err != nil {
		return "", "", err
	}

	var out struct {
		ID       string `json:"id"`
		ShareURL string `json:"share_url"`
	}
	err = c.do(ctx, http.MethodPost, "/spoques", &buf, mw.FormDataContentType(), &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
		return "", "", fmt.Errorf("%w: %s", ErrDailyLimit, apiErr.Message)
	}
	if err != nil {
		return "", "", err
	}
	return out.ID, out.ShareURL, nil
}

// ToggleLike sends the caller's current like state and returns the new one.
func (c *Client) ToggleLike(ctx context.Context, id string, currentlyLiked bool) (bool, error) {
	body, err := json.Marshal(map[string]bool{"liked": currentlyLiked})
	if err != nil {
		return false, err
	}
	var out struct {
		Liked bool `json:"liked"`
	}
	if err := c.do(ctx, http.MethodPost, "/spoques/"+id+"/like", bytes.NewReader(body), "application/json", &out); err != nil {
		return false, err
	}
	return out.Liked, nil
}

// Register claims a username for the signed-in user.
func (c *Client) Register(ctx context.Context, username, displayName string) (*models.User, error) {
	body, err := json.Marshal(map[string]string{"username": username, "display_name": displayName})
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/users", bytes.NewReader(body), "application/json", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, "", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Profile returns a user and their spoques by username.
func (c *Client) Profile(ctx context.Context, username string) (*models.User, []Spoque, error) {
	var out struct {
		User    models.User `json:"user"`
		Spoques []Spoque    `json:"spoques"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/by-username/"+url.PathEscape(username), nil, "", &out); err != nil {
		return nil, nil, err
	}
	return &out.User, out.Spoques, nil
}

// UpdateProfile changes the display name (when non-empty) and uploads a
// photo (when non-nil). An empty photoType lets the server sniff it.
func (c *Client) UpdateProfile(ctx context.Context, displayName string, photo []byte, photoType string) (*models.User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if displayName != "" {
		if err := mw.WriteField("display_name", displayName); err != nil {
			return nil, err
		}
	}
	if photo != nil {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="photo"; filename="avatar"`)
		if photoType != "" {
			hdr.Set("Content-Type", photoType)
		}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(photo); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var u models.User
	if err := c.do(ctx, http.MethodPut, "/users/me", &buf, mw.FormDataContentType(), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/token", bytes.NewReader(body), "application/json", &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	return c.doFunc(ctx, method, path, body, contentType, func(resp *http.Response) error {
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

func (c *Client) doFunc(ctx context.Context, method, path string, body io.Reader, contentType string, decode func(*http.Response) error) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	return decode(resp)
}

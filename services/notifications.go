package services

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"firebase.google.com/go/v4/messaging"

	"masterboxer.com/project-spoque/models"
)

const DailyPromptTopic = "daily_prompt"

// UserTopic is the FCM topic a client subscribes to for its own alerts.
func UserTopic(uid string) string {
	return "user_" + uid
}

// Notifier sends push notifications about spoque activity.
type Notifier interface {
	NotifyLike(ctx context.Context, post *models.Post, likerUsername string) error
	NotifyDailyPrompt(ctx context.Context, prompt *models.DailyPrompt) error
	NotifyReminder(ctx context.Context, uid string, prompt *models.DailyPrompt) error
}

type FCMNotifier struct {
	client *messaging.Client
}

func NewFCMNotifier(client *messaging.Client) *FCMNotifier {
	return &FCMNotifier{client: client}
}

func (n *FCMNotifier) NotifyLike(ctx context.Context, post *models.Post, likerUsername string) error {
	return n.send(ctx, UserTopic(post.AuthorID),
		fmt.Sprintf("%s liked your spoque", likerUsername),
		truncate(post.PromptText, 100),
		map[string]string{
			"type":      "like",
			"spoque_id": post.ID,
		})
}

func (n *FCMNotifier) NotifyDailyPrompt(ctx context.Context, prompt *models.DailyPrompt) error {
	return n.send(ctx, DailyPromptTopic,
		"Today's prompt is here 🎙️",
		truncate(prompt.Text, 100),
		map[string]string{
			"type": "daily_prompt",
			"date": prompt.Date,
		})
}

func (n *FCMNotifier) NotifyReminder(ctx context.Context, uid string, prompt *models.DailyPrompt) error {
	return n.send(ctx, UserTopic(uid),
		"Don't break your streak",
		fmt.Sprintf("You haven't recorded today's spoque yet: %s", truncate(prompt.Text, 80)),
		map[string]string{
			"type": "streak_reminder",
			"date": prompt.Date,
		})
}

func (n *FCMNotifier) send(ctx context.Context, topic, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Topic: topic,
	}

	response, err := n.client.Send(ctx, message)
	if err != nil {
		log.Printf("[FCM][ERROR] Send to topic %s failed: %v", topic, err)
		return err
	}

	log.Printf("[FCM] Sent %s to topic %s: %s", data["type"], topic, response)
	return nil
}

// LogNotifier only logs. It stands in when Firebase is not configured.
type LogNotifier struct{}

func (LogNotifier) NotifyLike(ctx context.Context, post *models.Post, likerUsername string) error {
	log.Printf("[FCM] (disabled) %s liked spoque %s by %s", likerUsername, post.ID, post.AuthorID)
	return nil
}

func (LogNotifier) NotifyDailyPrompt(ctx context.Context, prompt *models.DailyPrompt) error {
	log.Printf("[FCM] (disabled) daily prompt for %s: %q", prompt.Date, prompt.Text)
	return nil
}

func (LogNotifier) NotifyReminder(ctx context.Context, uid string, prompt *models.DailyPrompt) error {
	log.Printf("[FCM] (disabled) reminder for %s on %s", uid, prompt.Date)
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}

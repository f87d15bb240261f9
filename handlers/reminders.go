package handlers

import (
	"context"
	"fmt"
	"log"

	"masterboxer.com/project-spoque/feed"
	"masterboxer.com/project-spoque/services"
)

// SendDailyPromptNotification pushes today's prompt to the daily topic. It
// does nothing when no prompt is set.
func SendDailyPromptNotification(ctx context.Context, f *feed.Service, n services.Notifier) error {
	date := f.Today()
	log.Printf("[DailyReminder] Job started for %s", date)

	prompt, err := f.PromptByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("fetch prompt: %w", err)
	}
	if prompt == nil {
		log.Printf("[DailyReminder] No prompt set for %s, nothing to send", date)
		return nil
	}

	if err := n.NotifyDailyPrompt(ctx, prompt); err != nil {
		return fmt.Errorf("send daily prompt: %w", err)
	}
	log.Printf("[DailyReminder] Sent prompt for %s", date)
	return nil
}

// SendStreakReminders nudges everyone who posted yesterday and has not
// posted today. It returns the number of reminders sent.
func SendStreakReminders(ctx context.Context, f *feed.Service, n services.Notifier) (int, error) {
	cal := f.Calendar()
	today := f.Today()
	log.Printf("[StreakReminder] Job started for %s", today)

	day, err := cal.Parse(today)
	if err != nil {
		return 0, err
	}
	yesterday := cal.Key(day.AddDate(0, 0, -1))

	prompt, err := f.PromptByDate(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("fetch prompt: %w", err)
	}
	if prompt == nil {
		log.Printf("[StreakReminder] No prompt set for %s, skipping", today)
		return 0, nil
	}

	previous, err := f.PostsOnDate(ctx, yesterday)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", yesterday, err)
	}
	current, err := f.PostsOnDate(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", today, err)
	}

	postedToday := make(map[string]bool, len(current))
	for _, p := range current {
		postedToday[p.AuthorID] = true
	}

	sent := 0
	for _, p := range previous {
		if postedToday[p.AuthorID] {
			continue
		}
		if err := n.NotifyReminder(ctx, p.AuthorID, prompt); err != nil {
			log.Printf("[StreakReminder] FCM error for user %s: %v", p.AuthorID, err)
			continue
		}
		sent++
	}

	log.Printf("[StreakReminder] Job finished | %d posted yesterday, sent %d reminders", len(previous), sent)
	return sent, nil
}

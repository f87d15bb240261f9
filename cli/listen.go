package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"masterboxer.com/project-spoque/autoplay"
	"masterboxer.com/project-spoque/client"
	"masterboxer.com/project-spoque/models"
)

type ListenOptions struct {
	*RootOptions
	Date   string
	Player string
}

func NewListenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Play today's spoques one after another",
		Long: `Play today's spoques newest first, advancing automatically when each
one ends. With --date the archive of that day is shown and nothing plays
until asked.

Keys (then Enter):
  <empty>  play / pause
  n        next
  b        back
  l        like / unlike
  q        quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "browse the archive for YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.Player, "player", "ffplay -nodisp -autoexit -loglevel quiet", "audio player command; the URL is appended")

	return cmd
}

func runListen(cmd *cobra.Command, opts *ListenOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	c, err := opts.authedClient()
	if err != nil {
		return err
	}

	var spoques []client.Spoque
	if opts.Date == "" {
		feed, err := c.TodaysFeed(ctx)
		if err != nil {
			return fmt.Errorf("load today's feed: %w", err)
		}
		if feed.Prompt != nil {
			fmt.Fprintf(out, "Today's prompt: %s\n", feed.Prompt.Text)
		}
		spoques = feed.Spoques
	} else {
		spoques, err = c.SpoquesOn(ctx, opts.Date)
		if err != nil {
			return fmt.Errorf("load %s: %w", opts.Date, err)
		}
	}
	if len(spoques) == 0 {
		fmt.Fprintln(out, "No spoques yet.")
		return nil
	}

	fields := strings.Fields(opts.Player)
	if len(fields) == 0 {
		return errors.New("--player is empty")
	}

	posts := make([]models.Post, len(spoques))
	liked := make(map[string]bool, len(spoques))
	for i, s := range spoques {
		posts[i] = s.Post
		liked[s.ID] = s.LikedByMe
	}

	seq := autoplay.New(posts, autoplay.ExecFactory(fields[0], fields[1:]...),
		autoplay.WithAutoplay(opts.Date == ""),
		autoplay.WithOnPlay(func(idx int, p models.Post) {
			fmt.Fprintf(out, "▶ %d/%d  %s\n", idx+1, len(posts), describe(p))
		}))
	defer seq.Close()

	if opts.Date == "" {
		if err := seq.Play(); err != nil {
			fmt.Fprintf(out, "play: %v\n", err)
		}
	} else {
		showCurrent(out, seq)
	}

	for line := range lines(cmd.InOrStdin()) {
		switch strings.TrimSpace(line) {
		case "":
			if err := seq.Toggle(); err != nil {
				fmt.Fprintf(out, "play: %v\n", err)
			}
		case "n":
			if !seq.Advance() {
				fmt.Fprintln(out, "(end of feed)")
			}
			showCurrent(out, seq)
		case "b":
			if !seq.Retreat() {
				fmt.Fprintln(out, "(start of feed)")
			}
			showCurrent(out, seq)
		case "l":
			p, ok := seq.Current()
			if !ok {
				continue
			}
			now, err := c.ToggleLike(ctx, p.ID, liked[p.ID])
			if err != nil {
				fmt.Fprintf(out, "like: %v\n", err)
				continue
			}
			liked[p.ID] = now
			if now {
				fmt.Fprintln(out, "♥ liked")
			} else {
				fmt.Fprintln(out, "♡ unliked")
			}
		case "q":
			return nil
		default:
			fmt.Fprintln(out, "keys: <enter> play/pause, n next, b back, l like, q quit")
		}
	}
	return nil
}

func showCurrent(out io.Writer, seq *autoplay.Sequencer) {
	if p, ok := seq.Current(); ok {
		fmt.Fprintf(out, "  %d/%d  %s\n", seq.Index()+1, seq.Len(), describe(p))
	}
}

func describe(p models.Post) string {
	s := fmt.Sprintf("@%s (%d ♥)", p.AuthorUsername, p.LikeCount)
	if p.Caption != "" {
		s += " " + p.Caption
	}
	return s
}

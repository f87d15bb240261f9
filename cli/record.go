package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"masterboxer.com/project-spoque/client"
	"masterboxer.com/project-spoque/recorder"
)

type RecordOptions struct {
	*RootOptions
	File        string
	InputFormat string
	Input       string
	Caption     string
	PreviewDir  string
	Yes         bool
}

func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record and post today's spoque",
		Long: `Record up to 20 seconds of audio for today's prompt and post it.

Audio is captured with ffmpeg from the system microphone unless --file is
given. Press Enter to stop early; recording stops on its own at 20 seconds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "read audio from a file instead of the microphone")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "pulse", "ffmpeg input format (pulse, alsa, avfoundation, dshow)")
	cmd.Flags().StringVar(&opts.Input, "input", "default", "ffmpeg input device")
	cmd.Flags().StringVar(&opts.Caption, "caption", "", "optional caption, up to 200 characters")
	cmd.Flags().StringVar(&opts.PreviewDir, "preview-dir", os.TempDir(), "where to write the local preview")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "post without asking for confirmation")

	return cmd
}

func (o *RecordOptions) device() recorder.Device {
	if o.File != "" {
		return recorder.FileDevice{Path: o.File}
	}
	return recorder.CommandDevice{
		Name: "ffmpeg",
		Args: []string{
			"-hide_banner", "-loglevel", "error",
			"-f", o.InputFormat, "-i", o.Input,
			"-c:a", "libopus", "-f", "webm", "pipe:1",
		},
	}
}

func runRecord(cmd *cobra.Command, opts *RecordOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	c, err := opts.authedClient()
	if err != nil {
		return err
	}

	feed, err := c.TodaysFeed(ctx)
	if err != nil {
		return fmt.Errorf("load today's feed: %w", err)
	}
	if feed.Prompt == nil {
		return fmt.Errorf("no prompt has been set for %s yet", feed.Date)
	}
	if feed.PostedToday {
		return fmt.Errorf("you already posted today (%s)", feed.Date)
	}
	fmt.Fprintf(out, "Today's prompt: %s\n", feed.Prompt.Text)

	autoStopped := make(chan struct{}, 1)
	session := recorder.NewSession(opts.device(),
		recorder.WithPreviewDir(opts.PreviewDir),
		recorder.WithAutoStop(func() {
			select {
			case autoStopped <- struct{}{}:
			default:
			}
		}))
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		if errors.Is(err, recorder.ErrPermissionDenied) {
			return fmt.Errorf("cannot open the microphone: %w", err)
		}
		return err
	}

	input := lines(cmd.InOrStdin())
	fmt.Fprintln(out, "Recording... press Enter to stop (20s max)")

	progress := time.NewTicker(500 * time.Millisecond)
	defer progress.Stop()

wait:
	for {
		select {
		case <-input:
			session.Stop()
			break wait
		case <-autoStopped:
			break wait
		case <-progress.C:
			fmt.Fprintf(out, "\r  %4.1fs / 20.0s", session.Elapsed())
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	clip, err := session.Clip()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\rRecorded %.1fs (%d bytes)\n", clip.Duration.Seconds(), clip.Len())
	if clip.PreviewPath != "" {
		fmt.Fprintf(out, "Preview: %s\n", clip.PreviewPath)
	}

	if !opts.Yes {
		fmt.Fprint(out, "Post it? [y/N] ")
		answer := strings.ToLower(strings.TrimSpace(<-input))
		if answer != "y" && answer != "yes" {
			session.Reset()
			fmt.Fprintln(out, "Discarded.")
			return nil
		}
	}

	id, shareURL, err := c.Upload(ctx, clip, opts.Caption)
	if errors.Is(err, client.ErrDailyLimit) {
		return fmt.Errorf("you already posted today")
	}
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	fmt.Fprintf(out, "Posted %s\nShare: %s\n", id, shareURL)
	return nil
}

package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"masterboxer.com/project-spoque/models"
)

func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show, register or edit user profiles",
	}
	cmd.AddCommand(newProfileShowCommand(rootOpts))
	cmd.AddCommand(newProfileRegisterCommand(rootOpts))
	cmd.AddCommand(newProfileSetCommand(rootOpts))
	return cmd
}

func newProfileShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [username]",
		Short: "Show your profile, or another user's profile and spoques",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.authedClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				u, err := c.Me(cmd.Context())
				if err != nil {
					return err
				}
				printProfile(cmd, u)
				return nil
			}

			u, spoques, err := c.Profile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printProfile(cmd, u)
			for _, s := range spoques {
				fmt.Fprintf(out, "  %s  %s  ♥ %d\n", s.Date, s.PromptText, s.LikeCount)
			}
			return nil
		},
	}
}

func newProfileRegisterCommand(opts *RootOptions) *cobra.Command {
	var displayName string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Claim a username for your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.authedClient()
			if err != nil {
				return err
			}
			u, err := c.Register(cmd.Context(), args[0], displayName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered @%s\n", u.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "display-name", "", "display name (defaults to the username)")
	return cmd
}

func newProfileSetCommand(opts *RootOptions) *cobra.Command {
	var displayName, photoPath string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change your display name or profile photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if displayName == "" && photoPath == "" {
				return fmt.Errorf("nothing to change: pass --display-name or --photo")
			}
			c, err := opts.authedClient()
			if err != nil {
				return err
			}

			var photo []byte
			photoType := ""
			if photoPath != "" {
				photo, err = os.ReadFile(photoPath)
				if err != nil {
					return err
				}
				photoType = mime.TypeByExtension(filepath.Ext(photoPath))
			}

			u, err := c.UpdateProfile(cmd.Context(), displayName, photo, photoType)
			if err != nil {
				return err
			}
			printProfile(cmd, u)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "display-name", "", "new display name")
	cmd.Flags().StringVar(&photoPath, "photo", "", "image file to use as profile photo")
	return cmd
}

func printProfile(cmd *cobra.Command, u *models.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "@%s  %s\n", u.Username, u.DisplayName)
	if u.PhotoURL != "" {
		fmt.Fprintf(out, "photo: %s\n", u.PhotoURL)
	}
}

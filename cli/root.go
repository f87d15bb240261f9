// Package cli implements spoquectl, a terminal client for recording and
// listening to spoques.
package cli

import (
	"bufio"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"masterboxer.com/project-spoque/client"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server string
	Token  string

	v *viper.Viper
}

func (o *RootOptions) client() (*client.Client, error) {
	if o.Server == "" {
		return nil, errors.New("no server configured: pass --server or set SPOQUE_SERVER")
	}
	return client.New(o.Server, o.Token), nil
}

func (o *RootOptions) authedClient() (*client.Client, error) {
	c, err := o.client()
	if err != nil {
		return nil, err
	}
	if c.Token == "" {
		return nil, errors.New("not signed in: pass --token or set SPOQUE_TOKEN (see 'spoquectl token')")
	}
	return c, nil
}

// NewRootCommand creates the root command for spoquectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: viper.New()}
	opts.v.SetEnvPrefix("spoque")
	opts.v.AutomaticEnv()
	opts.v.SetDefault("server", "http://localhost:8080")

	cmd := &cobra.Command{
		Use:   "spoquectl",
		Short: "Record and listen to daily spoques",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Server = opts.v.GetString("server")
			opts.Token = opts.v.GetString("token")
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("server", "", "API base URL (env SPOQUE_SERVER)")
	cmd.PersistentFlags().String("token", "", "bearer token (env SPOQUE_TOKEN)")
	_ = opts.v.BindPFlag("server", cmd.PersistentFlags().Lookup("server"))
	_ = opts.v.BindPFlag("token", cmd.PersistentFlags().Lookup("token"))

	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewListenCommand(opts))
	cmd.AddCommand(NewPromptCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewHashPasswordCommand())

	return cmd
}

// lines delivers input lines on a channel that closes at EOF, so several
// steps of one command can wait on the same terminal.
func lines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

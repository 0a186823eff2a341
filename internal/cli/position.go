package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/subview/internal/config"
	"github.com/MimeLyc/subview/internal/position"
	"github.com/MimeLyc/subview/internal/timecode"
)

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Inspect and edit stored playback positions",
		Long: `Inspect and edit stored playback positions.

Positions are keyed by subtitle file name and expire after
POSITION_TTL_DAYS (30 by default).`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [name]",
			Short: "Print the stored position of a subtitle file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				ms, found, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("no position stored for %q", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", args[0], ms, timecode.Format(ms))
				return nil
			},
		},
		&cobra.Command{
			Use:   "put [name] [time]",
			Short: "Store a position (HH:MM:SS,mmm or milliseconds)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ms, err := parsePlaybackTime(args[1])
				if err != nil {
					return err
				}
				store, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()
				return store.Put(cmd.Context(), args[0], ms)
			},
		},
		&cobra.Command{
			Use:   "delete [name]",
			Short: "Forget the stored position of a subtitle file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()
				return store.Delete(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Delete expired positions now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()
				p, ok := store.(position.Purger)
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "backend expires positions itself")
					return nil
				}
				n, err := p.DeleteExpired(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired positions\n", n)
				return nil
			},
		},
	)
	return cmd
}

func openStore(cmd *cobra.Command) (position.Store, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return position.Open(cmd.Context(), cfg.Position.Settings())
}

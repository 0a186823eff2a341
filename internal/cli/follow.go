package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/subview/internal/config"
	"github.com/MimeLyc/subview/internal/position"
	"github.com/MimeLyc/subview/internal/subtitle"
	"github.com/MimeLyc/subview/internal/timecode"
	"github.com/MimeLyc/subview/internal/tui"
	"github.com/MimeLyc/subview/internal/viewer"
	"github.com/MimeLyc/subview/pkg/log"
)

func newFollowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "follow [subtitle_file]",
		Short: "Follow a subtitle file in the terminal",
		Long: `Play a subtitle file against a wall clock and highlight the active line.

Keys: space play/pause, j/k move, enter seek to the selected line,
r restart, s toggle auto-scroll, q quit (the position is saved).

Examples:
  subview follow movie.srt
  subview follow movie.srt --start 00:12:00,000
  subview follow movie.srt --no-persist`,
		Args: cobra.ExactArgs(1),
		RunE: runFollow,
	}
	cmd.Flags().Bool("no-persist", false, "Keep the playback position in memory only")
	cmd.Flags().Bool("resume", true, "Start from the stored position (default from resume_on_load)")
	cmd.Flags().String("start", "", "Start time (HH:MM:SS,mmm), overrides --resume")
	return cmd
}

func runFollow(cmd *cobra.Command, args []string) error {
	noPersist, _ := cmd.Flags().GetBool("no-persist")
	resume, _ := cmd.Flags().GetBool("resume")
	start, _ := cmd.Flags().GetString("start")

	file, err := subtitle.NewReader(args[0]).Read()
	if err != nil {
		return err
	}

	var startMs int64
	if start != "" {
		startMs, err = timecode.Parse(start)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prefs := config.RuntimeSettings{AutoScroll: true, ResumeOnLoad: true}
	var store position.Store = position.NewMemoryStore()
	if !noPersist {
		cfg, err := config.NewFromEnv()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if prefs, err = config.LoadRuntimeSettings(cfg.System.SettingsFile, cfg.RuntimeSettings()); err != nil {
			log.Warn("Ignoring settings file: %v", err)
		}
		store, err = position.Open(ctx, cfg.Position.Settings())
		if err != nil {
			log.Warn("Position store unavailable, positions stay in memory: %v", err)
			store = position.NewMemoryStore()
		}
	}
	defer store.Close()

	if !cmd.Flags().Changed("resume") {
		resume = prefs.ResumeOnLoad
	}
	if start != "" {
		resume = false
	}

	sess := viewer.NewSession("terminal", store)
	media := viewer.NewClockMedia(nil)
	sess.AttachMedia("clock", media)
	sess.LoadFile(ctx, file)
	if startMs > 0 {
		if err := sess.SeekTime(ctx, startMs); err != nil {
			return err
		}
	}

	// stdout belongs to the TUI from here on
	if lf, _ := cmd.Flags().GetString("log-file"); lf == "" && os.Getenv("LOG_FILE") == "" {
		log.GetLogger().SetLevel(log.LevelError)
	}

	return tui.Run(ctx, sess, media,
		tui.WithResume(resume),
		tui.WithAutoScroll(prefs.AutoScroll),
	)
}

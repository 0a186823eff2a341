package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/subview/internal/config"
	"github.com/MimeLyc/subview/pkg/log"
)

func newRootCmd() *cobra.Command {
	var (
		verbose bool
		logFile string
		fileLog *log.FileLogger
	)

	root := &cobra.Command{
		Use:   "subview",
		Short: "Subtitle-following media viewer",
		Long: `subview shows the subtitle lines of a video, highlights the line that
is currently spoken and seeks the video when a line is picked.

It serves a browser player over HTTP, follows a subtitle file in the
terminal and offers a few subtitle tools on the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			level := log.ParseLevel(os.Getenv("LOG_LEVEL"))
			if verbose {
				level = log.LevelDebug
			}
			if logFile == "" {
				logFile = os.Getenv("LOG_FILE")
			}
			if logFile == "" {
				log.InitLogger(level)
				return nil
			}

			fl, err := log.NewFileLogger(logFile, level)
			if err != nil {
				return err
			}
			fileLog = fl
			log.SetLogger(fl.Logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if fileLog != nil {
				_ = fileLog.Close()
				fileLog = nil
				log.InitLogger(log.LevelInfo)
			}
		},
	}
	root.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().
		StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout (env LOG_FILE)")

	root.AddCommand(
		newServeCmd(),
		newFollowCmd(),
		newParseCmd(),
		newExportCmd(),
		newCaptionsCmd(),
		newResolveCmd(),
		newPositionCmd(),
	)
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}

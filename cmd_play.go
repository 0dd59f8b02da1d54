package main

import (
	"os/signal"
	"syscall"

	"neuroscreen/internal/models"
	"neuroscreen/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportDir string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Take the assessment in the terminal",
	Long: `Play runs the questionnaire and the four timed tasks in the terminal.
Mouse clicks and the keyboard both work; logs go to the log files only.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory for saved PDF reports (default: report.output_dir)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	// The console core would draw over the terminal UI.
	conf, _, log, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer log.Sync()

	assessment, err := models.LoadAssessment(conf.Assessment.QuestionsPath)
	if err != nil {
		log.Error("Failed to load assessment", zap.Error(err))
		return err
	}

	dir := conf.Report.OutputDir
	if reportDir != "" {
		dir = reportDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting terminal assessment", zap.String("reportDir", dir))
	return tui.Run(ctx, tui.Options{
		Log:        log,
		Assessment: assessment,
		Play:       conf.Play,
		ReportDir:  dir,
	})
}

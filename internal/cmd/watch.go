package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnykmshr/docgate/internal/outbox"
	"github.com/vnykmshr/docgate/pkg/scheduling/scheduler"
	"github.com/vnykmshr/docgate/pkg/scheduling/workerpool"
)

func newWatchCommand(a *app) *cobra.Command {
	var (
		dir  string
		once bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Drain the outbox directory on a schedule",
		Long: `Submit every document file found in the outbox directory whenever the
configured cron schedule fires. Submitted files move to done/, rejected ones
to failed/.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Outbox.Dir
			}

			client, _, err := a.newClient(nil)
			if err != nil {
				return err
			}
			defer client.Close()

			ob := &outbox.Outbox{
				Dir:        dir,
				Client:     client,
				Defaults:   a.cfg.DocumentDefaults(),
				Credential: a.cfg.Outbox.Credential,
				Workers:    a.cfg.Outbox.Workers,
				Logger:     a.logger,
			}

			drain := func(ctx context.Context) error {
				report, err := ob.Drain(ctx)
				if err != nil {
					return err
				}
				if report != (outbox.Report{}) {
					a.logger.Info("outbox drained",
						zap.Int("submitted", report.Submitted),
						zap.Int("failed", report.Failed),
						zap.Int("deferred", report.Deferred))
				}
				return nil
			}

			if once {
				return drain(cmd.Context())
			}

			s, err := scheduler.NewSafe(scheduler.Config{Workers: 1, Logger: a.logger})
			if err != nil {
				return err
			}
			if err := s.ScheduleCron("outbox", a.cfg.Outbox.Schedule, workerpool.TaskFunc(drain)); err != nil {
				<-s.Stop()
				return err
			}
			if err := s.Start(); err != nil {
				<-s.Stop()
				return err
			}

			a.logger.Info("watching outbox",
				zap.String("dir", dir),
				zap.String("schedule", a.cfg.Outbox.Schedule))

			<-cmd.Context().Done()
			<-s.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "outbox directory (defaults to outbox.dir)")
	cmd.Flags().BoolVar(&once, "once", false, "drain once and exit")
	return cmd
}

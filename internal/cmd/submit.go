package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnykmshr/docgate/internal/outbox"
	"github.com/vnykmshr/docgate/pkg/submission"
)

func newSubmitCommand(a *app) *cobra.Command {
	var (
		signature string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "submit FILE...",
		Short: "Submit document files once",
		Long: `Submit each JSON or YAML document file to the registration API, honoring
the configured rate limit, and print one line per file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if signature == "" {
				signature = a.cfg.Outbox.Credential
			}

			client, _, err := a.newClient(nil)
			if err != nil {
				return err
			}
			defer client.Close()

			defaults := a.cfg.DocumentDefaults()
			items := make([]submission.Submission, 0, len(args))
			for _, path := range args {
				doc, err := outbox.ReadDocument(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				defaults.Apply(doc)
				items = append(items, submission.Submission{Label: path, Doc: doc, Credential: signature})
			}

			outcomes, err := client.SubmitAll(cmd.Context(), items, workers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", o.Label, o.Err)
					continue
				}
				fmt.Fprintf(out, "OK   %s: status=%d request_id=%s waited=%s\n",
					o.Label, o.Result.StatusCode, o.Result.RequestID, o.Result.Waited)
			}

			a.logger.Info("submit finished", zap.Int("files", len(outcomes)), zap.Int("failed", failed))
			if failed > 0 {
				return fmt.Errorf("%d of %d submissions failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&signature, "signature", "s", "", "credential for the Authorization header (defaults to outbox.credential)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent submissions")
	return cmd
}

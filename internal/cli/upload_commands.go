package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/progress"
	"github.com/docassist/docassist/internal/services"
	"github.com/docassist/docassist/internal/transfer"
	stringutil "github.com/docassist/docassist/internal/util/strings"
)

// errUploadFailed is returned after a batch with failures so the process
// exits non-zero. The details have already been printed.
var (
	errUploadFailed   = errors.New("some documents failed to upload")
	errNothingToRetry = errors.New("the last upload batch had no failures; use 'docassist upload' for newly staged files")
)

func newUploadCmd() *cobra.Command {
	var retry bool

	cmd := requireLogin(&cobra.Command{
		Use:   "upload",
		Short: "Upload every staged document in one batch",
		Long: `Upload the staged documents one at a time, in order, with a short pause
between requests. A file that fails does not stop the rest of the batch.

When every document uploaded the selection is cleared. Otherwise it is
kept, and --retry sends every file still staged again, not only the
ones that failed. --retry is refused unless the last batch had failures
or was interrupted.

Examples:
  docassist stage add ./Reports
  docassist upload
  docassist upload --retry`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			sel, st, err := e.Selection(cmd)
			if err != nil {
				return err
			}
			out := stdout(cmd)
			if sel.Len() == 0 {
				fmt.Fprintln(out, "Nothing staged. Use 'docassist stage add <path>' first.")
				return nil
			}
			if retry {
				recent, err := st.RecentBatches(cmd.Context(), 1)
				if err != nil {
					return err
				}
				if len(recent) == 0 || (recent[0].Failed == 0 && !recent[0].Cancelled) {
					return errNothingToRetry
				}
				fmt.Fprintf(out, "Retrying %s\n", stringutil.CountNoun(sel.Len(), "staged file"))
			}

			delay := e.cfg.InterRequestDelay
			if delay == 0 {
				delay = -1 // configured as 0: no pause
			}

			ui := progress.NewBatchUIFor(out)
			pipeline := transfer.NewPipeline(e.client, transfer.Options{
				InterRequestDelay: delay,
				DisplayResetDelay: -1,
				UploadTimeout:     constants.UploadRequestTimeout,
				EventBus:          e.bus,
				Logger:            e.logger,
				Recorder:          st,
			})
			defer pipeline.Close()
			pipeline.AddObserver(ui.Observe)

			documents := services.NewDocumentService(e.client, e.bus, e.logger)
			uploads := services.NewUploadService(sel, pipeline, documents, st, e.logger)

			result, runErr := uploads.Upload(cmd.Context())
			ui.Wait()
			if runErr != nil {
				if errors.Is(runErr, services.ErrNothingStaged) {
					fmt.Fprintln(out, "Nothing staged.")
					return nil
				}
				if result.Summary.Total() > 0 {
					fmt.Fprintln(out, transfer.Describe(result.Summary))
				}
				return fmt.Errorf("upload interrupted: %w", runErr)
			}

			fmt.Fprintln(out, transfer.Describe(result.Summary))
			if result.RefreshErr == nil {
				fmt.Fprintf(out, "%s now in your library\n", stringutil.CountNoun(len(result.Documents), "document"))
			} else {
				fmt.Fprintf(out, "Could not refresh documents: %s\n", result.RefreshErr)
			}

			if len(result.Summary.Failed) > 0 {
				fmt.Fprintf(out, "The selection was kept. Run 'docassist upload --retry' to try again.\n")
				return errUploadFailed
			}
			return nil
		},
	})

	cmd.Flags().BoolVar(&retry, "retry", false, "Send every still-staged file again after a failed or interrupted batch")
	cmd.AddCommand(newUploadHistoryCmd())
	return cmd
}

func newUploadHistoryCmd() *cobra.Command {
	var limit int
	var showFailures bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent upload batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			st, err := e.Store()
			if err != nil {
				return err
			}
			batches, err := st.RecentBatches(cmd.Context(), limit)
			if err != nil {
				return err
			}

			return printValue(cmd, e.prefs.Output, batches, func() {
				out := stdout(cmd)
				if len(batches) == 0 {
					fmt.Fprintln(out, "No upload batches recorded yet")
					return
				}
				for _, b := range batches {
					status := "ok"
					switch {
					case b.Cancelled:
						status = "cancelled"
					case b.Failed > 0:
						status = "errors"
					}
					fmt.Fprintf(out, "%4d  %s  %d/%d uploaded  %-9s  %s\n",
						b.ID, b.StartedAt.Local().Format("2006-01-02 15:04"),
						b.Uploaded, b.Total, status,
						faintStyle.Render(b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond).String()))

					if !showFailures || b.Failed == 0 {
						continue
					}
					failures, err := st.BatchFailures(cmd.Context(), b.ID)
					if err != nil {
						fmt.Fprintf(out, "      (could not load failures: %v)\n", err)
						continue
					}
					for _, line := range transfer.FailureLines(failures) {
						fmt.Fprintf(out, "      %s\n", line)
					}
				}
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", constants.BatchHistoryLimit, "Number of batches to show")
	cmd.Flags().BoolVar(&showFailures, "failures", false, "List the failed files of each batch")
	return cmd
}

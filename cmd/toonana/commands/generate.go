package commands

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/toonana/toonana/editor"
	"github.com/toonana/toonana/errors"
)

// GenerateCmd runs a comic generation job for one entry and follows its
// progress with the same poll loop the UI uses.
var GenerateCmd = &cobra.Command{
	Use:   "generate <entry-id>",
	Short: "Generate a comic for an entry",
	Long: `Generate a comic for a journal entry.

Drafts a storyboard with the configured text model, renders panels
through the image service, and saves the result. Progress is polled the
same way the desktop UI polls it.

Examples:
  toonana generate 4f8a21c0-...
  toonana generate 4f8a21c0-... --style manga`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var generateStyleFlag string

func init() {
	GenerateCmd.Flags().StringVar(&generateStyleFlag, "style", "", "Art style (defaults to studio.style)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	studioSvc := a.newStudio(ctx)
	client := editor.NewStudioClient(studioSvc)

	status, err := client.CreateJob(ctx, args[0], generateStyleFlag)
	if err != nil {
		return err
	}
	pterm.Info.Printf("Job %s started", status.JobID)

	progress, _ := pterm.DefaultProgressbar.
		WithTotal(100).
		WithTitle("Queued").
		Start()

	done := make(chan struct{})
	var stopReason editor.StopReason
	var stopErr error

	poller := editor.NewPoller(client, a.cfg.Editor.PollInterval(),
		func(u editor.Update) {
			progress.UpdateTitle(u.Display.Label)
			target := int(u.Display.Fraction * 100)
			if target > progress.Current {
				progress.Add(target - progress.Current)
			}
		},
		func(reason editor.StopReason, err error) {
			stopReason = reason
			stopErr = err
			close(done)
		})

	if err := poller.Start(ctx, status.JobID); err != nil {
		return err
	}
	<-done
	progress.Stop()

	switch stopReason {
	case editor.StopTerminal:
		final, err := client.JobStatus(context.Background(), status.JobID)
		if err == nil && final.Stage.Terminal() {
			if final.Stage.Err != "" {
				pterm.Error.Printf("Generation failed: %s", final.Stage.Err)
				return errors.Newf("generation failed: %s", final.Stage.Err)
			}
			pterm.Success.Printf("Comic saved: %d panels", len(final.PanelImagePaths))
			for _, path := range final.PanelImagePaths {
				pterm.Println("  " + path)
			}
		}
		// Let the saving goroutines settle before the process exits.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return studioSvc.Shutdown(shutdownCtx)
	case editor.StopError:
		return stopErr
	default:
		pterm.Warning.Println("Polling cancelled")
		return nil
	}
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docassist/docassist/internal/cloud/providers"
	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/devserver"
)

func newDevBackendCmd() *cobra.Command {
	var addr, blobBackend, localDir string

	cmd := &cobra.Command{
		Use:   "dev-backend",
		Short: "Run an in-memory backend for local development",
		Long: `Run a local implementation of the backend API under /api.

Users, sessions and document metadata live in memory and are lost on
exit. Uploaded bytes go to the blob store chosen in the [devbackend]
section of the preferences file: memory (default), local, s3 or azure.

Examples:
  docassist dev-backend
  docassist dev-backend --addr :9090 --blob-backend local --local-dir /tmp/blobs
  docassist --api-url http://localhost:9090/api login`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			prefs := e.prefs.DevBackend
			if blobBackend != "" {
				prefs.BlobBackend = blobBackend
			}
			if localDir != "" {
				prefs.LocalDir = localDir
			}

			ctx := cmd.Context()
			store, err := providers.NewBlobStore(ctx, prefs, e.cfg, e.logger)
			if err != nil {
				return fmt.Errorf("failed to create blob store: %w", err)
			}

			srv := devserver.New(devserver.Options{Store: store, Logger: e.logger})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()
			fmt.Fprintf(stdout(cmd), "Dev backend listening on %s (blob store: %s). Press Ctrl+C to stop.\n", addr, store.Name())

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", constants.DevBackendAddr, "Listen address")
	cmd.Flags().StringVar(&blobBackend, "blob-backend", "", "Blob store: memory, local, s3, azure (overrides preferences)")
	cmd.Flags().StringVar(&localDir, "local-dir", "", "Directory for the local blob store")
	return cmd
}

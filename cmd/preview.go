package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentic-research/fsbuild/internal/preview"
	"github.com/agentic-research/fsbuild/internal/sink"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	previewAddr  string
	previewMount string
)

func init() {
	addMaxIterationsFlag(previewCmd)
	addVarFlag(previewCmd)
	previewCmd.Flags().StringVar(&previewAddr, "addr", "127.0.0.1:0", "NFS listen address")
	previewCmd.Flags().StringVar(&previewMount, "mount", "", "Mount the preview here (runs sudo mount)")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview INPUT",
	Short: "Generate INPUT in memory and serve it read-only over NFS",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		cfg, desc, err := load(args[0])
		if err != nil {
			return err
		}

		mem := sink.NewMemory()
		eng, err := newEngine(mem, cfg, log)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		report, err := eng.Materialize(ctx, desc.Decls, "", nil)
		if err != nil {
			return err
		}

		srv, err := preview.NewServer(mem.Filesystem(), previewAddr)
		if err != nil {
			return err
		}
		log.Info("preview serving", "port", srv.Port(), "files", len(report.Written))

		out := cmd.OutOrStdout()
		if previewMount != "" {
			if err := preview.Mount(srv.Port(), previewMount); err != nil {
				_ = srv.Close()
				return err
			}
			fmt.Fprintf(out, "Preview mounted at %s. Press Ctrl-C to stop.\n", previewMount)
		} else {
			mountCmd, err := preview.MountCommand(srv.Port(), "MOUNTPOINT")
			if err != nil {
				fmt.Fprintf(out, "NFS server on port %d. Press Ctrl-C to stop.\n", srv.Port())
			} else {
				fmt.Fprintf(out, "Mount with:\n  %s\nPress Ctrl-C to stop.\n", mountCmd)
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			err := <-srv.Done()
			if gctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if err == nil {
				err = errors.New("server exited")
			}
			return fmt.Errorf("nfs preview: %w", err)
		})
		g.Go(func() error {
			<-gctx.Done()
			if previewMount != "" {
				if err := preview.Unmount(previewMount); err != nil {
					log.Warn("unmount failed", "mountpoint", previewMount, "error", err)
				}
			}
			return srv.Close()
		})
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

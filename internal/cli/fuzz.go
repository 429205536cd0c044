package cli

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/covguard/fuzzcheck/internal/config"
	"github.com/covguard/fuzzcheck/internal/driver"
	"github.com/covguard/fuzzcheck/internal/statusserver"
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz -- TARGET [ARGS...]",
	Short: "Run the fuzz loop against TARGET until stopped or max-iter is reached",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFuzz,
}

func init() {
	rootCmd.AddCommand(fuzzCmd)
	addCommonFlags(fuzzCmd)
}

func runFuzz(cmd *cobra.Command, args []string) error {
	opts, _, index, err := resolvedOptions(cmd)
	if err != nil {
		return err
	}
	if index != nil {
		defer index.Close()
	}

	seeds, err := loadSeeds(cmd)
	if err != nil {
		return err
	}

	target := runSubprocessTarget(args[0], args[1:])
	d := driver.New(target, opts)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Server.Enabled {
		srv := statusserver.New(d)
		httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Handler()}
		go func() {
			_ = httpServer.ListenAndServe()
		}()
		go func() {
			<-ctx.Done()
			_ = httpServer.Close()
		}()
	}

	if err := d.Fuzz(ctx, seeds); err != nil && ctx.Err() == nil {
		return fmt.Errorf("fuzz loop: %w", err)
	}
	return nil
}

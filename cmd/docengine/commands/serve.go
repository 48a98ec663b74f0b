package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/zeptools/gw-docs/conf"
)

const (
	throttleCleanupCycle = 10 * time.Minute
	throttleIdleAfter    = time.Hour
)

func newServeCmd(root *rootOpts) *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until SIGINT or SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := boot(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer core.ResourceCleanUp()

			steps := []func() error{
				core.PrepareSQLDatabases,
				core.PrepareSources,
				core.PrepareKVDatabase,
				core.PrepareTokens,
				core.PrepareClientApps,
			}
			if err = runSteps(steps); err != nil {
				return err
			}
			if core.KVDBClient != nil {
				if err = core.PrepareQueue(); err != nil {
					return err
				}
			}
			if withWorker {
				if err = core.PrepareJobWorker(); err != nil {
					return err
				}
			}
			core.PrepareThrottleBucketStore(throttleCleanupCycle, throttleIdleAfter)
			core.PrepareWebService()
			core.PrepareUDSService()
			return run(core)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "also drain the job queue in this process")
	return cmd
}

func newWorkerCmd(root *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Drain the job queue until SIGINT or SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := boot(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer core.ResourceCleanUp()

			steps := []func() error{
				core.PrepareKVDatabase,
				core.PrepareQueue,
				core.PrepareJobWorker,
			}
			if err = runSteps(steps); err != nil {
				return err
			}
			core.PrepareUDSService()
			return run(core)
		},
	}
}

func runSteps(steps []func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// run starts the services and blocks until they all stop. The root context
// ends on a signal, which stops every service.
func run(core *conf.Core) error {
	if err := core.StartServices(); err != nil {
		core.StopServices()
		return err
	}
	go func() {
		<-core.RootCtx.Done()
		core.StopServices()
	}()
	return core.WaitServicesDone()
}

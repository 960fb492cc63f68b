package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muses-project/progress/internal/infrastructure/config"
	"github.com/muses-project/progress/internal/infrastructure/logging"
	"github.com/muses-project/progress/internal/infrastructure/wiring"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Advance missions whose quests finished and replay failed rewards",
	Long: `Reconcile scans every IN_PROGRESS mission. When the quest behind the next
step is already done, the step is completed as if the cascade had reached it.
Failed reward deliveries are then replayed once.

It runs against the mission service's store and needs QUEST_SVC_URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return MapError(err)
		}
		logger := logging.New(logging.Options{Debug: cfg.Debug, File: cfg.LogFile, Service: config.ServiceReconcile})
		defer func() { _ = logger.Sync() }()

		rec, err := wiring.BuildReconciler(cmd.Context(), cfg, logger)
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = rec.Close() }()

		report, err := rec.Run(cmd.Context())
		if err != nil {
			return MapError(fmt.Errorf("reconcile: %w", err))
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "muses %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}

func init() {
	RootCmd.AddCommand(reconcileCmd)
	RootCmd.AddCommand(versionCmd)
}

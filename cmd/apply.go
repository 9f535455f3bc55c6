package cmd

import (
	"fmt"
	"time"

	"go-chroot/config"
	"go-chroot/journal"
	"go-chroot/log"
	"go-chroot/mount"
	"go-chroot/util"

	"github.com/spf13/cobra"
)

func newApplyCmd() *cobra.Command {
	var (
		root      string
		tablePath string
		noJournal bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the mount table under the chroot root",
		Long: `Mount every entry of the mount table, in order, under the chroot root.
Stops at the first failure; mounts already made are left in place and listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if root == "" {
				root = cfg.ChrootPath
			}
			if tablePath == "" {
				tablePath = cfg.MountTable
			}
			return runApply(cmd, cfg, root, tablePath, !noJournal)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "chroot root (default from config)")
	cmd.Flags().StringVarP(&tablePath, "table", "t", "", "mount table file (default from config)")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record the run in the journal")

	return cmd
}

func runApply(cmd *cobra.Command, cfg *config.Config, root, tablePath string, useJournal bool) error {
	logger := log.NewComponentLogger("cmd")
	out := cmd.OutOrStdout()

	table, err := mount.LoadTable(tablePath)
	if err != nil {
		return err
	}
	table.SystemPath = cfg.SystemPath

	warnIfNotRoot(logger)

	m, err := newMounter(cfg, logger)
	if err != nil {
		return err
	}

	var (
		db    *journal.DB
		runID string
		rec   mount.Recorder
	)
	if useJournal {
		db, err = journal.OpenDB(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer db.Close()

		runID, err = db.StartRun(root, tablePath, time.Now())
		if err != nil {
			return err
		}
		rec = db.Recorder(runID)
		logger.Debug("Journal run %s in %s", runID, db.Path())
	}

	start := time.Now()
	mounted, applyErr := table.Apply(m, root, rec)

	if db != nil {
		if err := db.FinishRun(runID, time.Now(), applyErr); err != nil {
			logger.Warn("Failed to finish journal run %s: %v", runID, err)
		}
	}

	fmt.Fprintf(out, "Mounted %d of %d entries under %s (%s)\n",
		len(mounted), len(table.Entries), root, util.FormatDuration(time.Since(start)))
	if runID != "" {
		fmt.Fprintf(out, "Run: %s\n", runID)
	}

	if applyErr != nil {
		if len(mounted) > 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "Left mounted:")
			for _, e := range mounted {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", util.JoinUnder(root, e.Destination))
			}
		}
		return applyErr
	}

	return nil
}

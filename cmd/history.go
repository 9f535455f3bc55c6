package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"go-chroot/config"
	"go-chroot/journal"
	"go-chroot/util"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [RUN_ID|latest]",
		Short: "Show journaled apply runs",
		Long: `Without arguments, list every journaled run, newest first. With a run ID
(or "latest"), show the mounts that run attempted, in order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()

			db, err := journal.OpenDB(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
			defer db.Close()

			if len(args) == 0 {
				return listRuns(cmd.OutOrStdout(), db)
			}
			return showRun(cmd.OutOrStdout(), db, args[0])
		},
	}
}

func listRuns(w io.Writer, db *journal.DB) error {
	runs, err := db.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tSTATUS\tMOUNTED\tFAILED\tROOT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID,
			r.StartTime.Format(time.DateTime),
			runDuration(&r),
			r.Status,
			r.Mounted,
			r.Failed,
			r.Root)
	}
	return tw.Flush()
}

func showRun(w io.Writer, db *journal.DB, runID string) error {
	var (
		run *journal.RunRecord
		err error
	)
	if runID == "latest" {
		run, err = db.LatestRun()
		if err == nil && run == nil {
			fmt.Fprintln(w, "No runs recorded.")
			return nil
		}
	} else {
		run, err = db.GetRun(runID)
	}
	if err != nil {
		return err
	}

	mounts, err := db.RunMounts(run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "Root:     %s\n", run.Root)
	fmt.Fprintf(w, "Table:    %s\n", run.Table)
	fmt.Fprintf(w, "Started:  %s\n", run.StartTime.Format(time.DateTime))
	fmt.Fprintf(w, "Duration: %s\n", runDuration(run))
	fmt.Fprintf(w, "Status:   %s\n", run.Status)
	if run.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", run.Error)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tNAME\tSOURCE\tDESTINATION\tOPTIONS\tSTATUS\tERROR")
	for _, m := range mounts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Seq,
			m.Name,
			m.Source,
			m.Destination,
			mountFlags(&m),
			m.Status,
			util.Truncate(m.Error, 60))
	}
	return tw.Flush()
}

func runDuration(r *journal.RunRecord) string {
	if r.EndTime.IsZero() {
		return "-"
	}
	return util.FormatDuration(r.EndTime.Sub(r.StartTime))
}

func mountFlags(m *journal.MountRecord) string {
	var flags []string
	if m.Create {
		flags = append(flags, "create")
	}
	if m.Recursive {
		flags = append(flags, "rbind")
	}
	if m.Readonly {
		flags = append(flags, "ro")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

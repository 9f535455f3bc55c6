// Package cmd implements the go-chroot command line.
package cmd

import (
	"fmt"
	"os"

	"go-chroot/config"
	"go-chroot/log"
	"go-chroot/mount"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// Version is set by main (and by -ldflags at release time).
var Version = "dev"

// newRunner builds the CmdRunner used by bind and apply. Tests replace it.
var newRunner = mount.NewExecCmdRunner

type globalOptions struct {
	configDir string
	profile   string
	debug     bool
}

// NewRootCmd builds the go-chroot command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "go-chroot",
		Short: "Set up bind and pseudo-filesystem mounts for a chroot",
		Long: `go-chroot prepares a chroot by bind mounting host paths into it and
mounting proc, sysfs and tmpfs, either one mount at a time (bind) or from a
mount table (apply). Applied runs are journaled so a partially failed setup
can be inspected (history).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configDir, opts.profile)
			if err != nil {
				return err
			}
			if opts.debug {
				cfg.Debug = true
			}
			log.SetDebug(cfg.Debug)
			config.SetConfig(cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configDir, "config-dir", "C", "", "config base directory (default "+config.DefaultConfigDir+")")
	root.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "default", "config profile")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "debug verbosity")

	root.AddCommand(
		newBindCmd(),
		newApplyCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "go-chroot version %s\n", Version)
		},
	}
}

// newMounter builds a Mounter from the loaded config and fails early when
// the configured mount utility cannot be found.
func newMounter(cfg *config.Config, logger log.LibraryLogger) (*mount.Mounter, error) {
	m := mount.NewMounter(newRunner(), logger)
	m.SetCommand(cfg.MountCommand)
	if err := m.LookupCommand(); err != nil {
		return nil, err
	}
	return m, nil
}

func warnIfNotRoot(logger log.LibraryLogger) {
	if unix.Geteuid() != 0 {
		logger.Warn("Not running as root: mount(8) will most likely refuse")
	}
}

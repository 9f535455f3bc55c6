package cmd

import (
	"fmt"

	"go-chroot/config"
	"go-chroot/log"
	"go-chroot/mount"

	"github.com/spf13/cobra"
)

func newBindCmd() *cobra.Command {
	var opts mount.Options

	cmd := &cobra.Command{
		Use:   "bind SOURCE DESTINATION",
		Short: "Mount one source on a destination",
		Long: `Bind mount SOURCE on DESTINATION. SOURCE may also be one of the
pseudo-filesystems proc, sysfs or tmpfs, which are mounted by type.`,
		Example: `  go-chroot bind --create proc /srv/chroot/proc
  go-chroot bind --create --recursive --readonly /usr /srv/chroot/usr`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			logger := log.NewComponentLogger("cmd")
			warnIfNotRoot(logger)

			m, err := newMounter(cfg, logger)
			if err != nil {
				return err
			}
			if err := m.Bind(args[0], args[1], opts); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Mounted %s on %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Create, "create", "c", false, "create the destination if it does not exist")
	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", false, "recursive bind mount (--rbind)")
	cmd.Flags().BoolVar(&opts.Readonly, "readonly", false, "remount read-only after mounting")

	return cmd
}

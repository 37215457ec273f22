package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand() *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete the node at path",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			session, closeFn := mustSessionFromCmd(cmd)
			defer closeFn()

			ctx, cancel := commandContext()
			defer cancel()

			if err := session.Delete(ctx, args[0], version); err != nil {
				exitWithError(err)
			}
			fmt.Printf("deleted %s\n", args[0])
		},
	}
	cmd.Flags().IntVar(&version, "version", -1, "expected current version (-1 to skip the check)")
	return cmd
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSetCommand() *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "set <path> <data>",
		Short: "Update the data stored at path",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			session, closeFn := mustSessionFromCmd(cmd)
			defer closeFn()

			ctx, cancel := commandContext()
			defer cancel()

			node, err := session.SetData(ctx, args[0], []byte(args[1]), version)
			if err != nil {
				exitWithError(err)
			}
			fmt.Printf("updated %s (version %s -> %d)\n", node.Path, strconv.Itoa(version), node.Modified.System.Sum)
		},
	}
	cmd.Flags().IntVar(&version, "version", -1, "expected current version (-1 to skip the check)")
	return cmd
}

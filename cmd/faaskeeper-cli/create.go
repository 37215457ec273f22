package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <path> <data>",
		Short: "Create a node at path with the given data",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			session, closeFn := mustSessionFromCmd(cmd)
			defer closeFn()

			ctx, cancel := commandContext()
			defer cancel()

			node, err := session.Create(ctx, args[0], []byte(args[1]))
			if err != nil {
				exitWithError(err)
			}
			fmt.Printf("created %s (version %d)\n", node.Path, node.Modified.System.Sum)
		},
	}
}

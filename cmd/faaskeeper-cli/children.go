package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ls-2018/faaskeeper-go/types"
)

func newChildrenCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "children <path>",
		Short: "Read the child snapshot of path (prints its path and version, not the child names)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			session, closeFn := mustSessionFromCmd(cmd)
			defer closeFn()

			ctx, cancel := commandContext()
			defer cancel()

			var node *types.Node
			var err error
			if watch {
				node, err = session.GetChildrenW(ctx, args[0], func(ev types.WatchedEvent) {
					fmt.Printf("watch fired: %s changed at %d\n", ev.Path, ev.Timestamp)
				})
			} else {
				node, err = session.GetChildren(ctx, args[0])
			}
			if err != nil {
				exitWithError(err)
			}
			if node == nil {
				fmt.Printf("%s has no children\n", args[0])
				return
			}
			fmt.Printf("%s (version %d)\n", node.Path, node.Modified.System.Sum)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "arm a GET_CHILDREN watch after the read")
	return cmd
}

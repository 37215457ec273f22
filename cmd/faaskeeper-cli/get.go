package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ls-2018/faaskeeper-go/types"
)

func newGetCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Read the data stored at path",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			session, closeFn := mustSessionFromCmd(cmd)
			defer closeFn()

			ctx, cancel := commandContext()
			defer cancel()

			var node *types.Node
			var err error
			if watch {
				node, err = session.GetDataW(ctx, args[0], func(ev types.WatchedEvent) {
					fmt.Printf("watch fired: %s changed at %d\n", ev.Path, ev.Timestamp)
				})
			} else {
				node, err = session.GetData(ctx, args[0])
			}
			if err != nil {
				exitWithError(err)
			}

			fmt.Printf("%s = %q (version %d, %s)\n",
				args[0], node.Data, node.Modified.System.Sum, humanize.Bytes(uint64(len(node.Data))))
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "arm a GET_DATA watch after reading")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ls-2018/faaskeeper-go/types"
)

func newExistsCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "exists <path>",
		Short: "Report whether path currently exists",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			session, closeFn := mustSessionFromCmd(cmd)
			defer closeFn()

			ctx, cancel := commandContext()
			defer cancel()

			var ok bool
			var err error
			if watch {
				ok, err = session.ExistsW(ctx, args[0], func(ev types.WatchedEvent) {
					fmt.Printf("watch fired: %s changed at %d\n", ev.Path, ev.Timestamp)
				})
			} else {
				ok, err = session.Exists(ctx, args[0])
			}
			if err != nil {
				exitWithError(err)
			}
			fmt.Printf("%s exists: %t\n", args[0], ok)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "arm an EXISTS watch after the check")
	return cmd
}

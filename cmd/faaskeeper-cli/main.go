// Command faaskeeper-cli is a thin cobra front end over the faaskeeper
// Session facade, mirroring etcdctl's command-tree shape closely enough
// that a caller of the latter feels at home, backed by an in-memory
// provider so the tool is runnable without any real cloud infrastructure.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

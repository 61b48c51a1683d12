package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	// A cancelled run (ctrl-c mid-sync) already reported what it was doing.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "ludex:", err)
	}
	os.Exit(1)
}

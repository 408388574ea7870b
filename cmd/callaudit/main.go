package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	root := newRootCommand()
	err := root.Execute()
	if err == nil {
		return
	}
	// A canceled context means the user interrupted a foreground command.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "callaudit:", err)
	}
	os.Exit(1)
}

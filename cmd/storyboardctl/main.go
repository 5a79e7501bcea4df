// Command storyboardctl is the operator CLI: migrations, demo data, test
// tokens and account moderation.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(openFromConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

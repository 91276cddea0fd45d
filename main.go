// file: main.go
// version: 2.0.0
// guid: 8d1f3b5a-7c9e-4a2b-9d4f-6b8a0c2e4f61

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/bookshelf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// glycandia - glycan structural isomer finder for DIA LC-MS/MS runs
package main

import (
	"fmt"
	"os"

	"github.com/glycanlab/glycandia/cmd/glycandia/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

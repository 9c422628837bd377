package main

import (
	"fmt"
	"os"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// kiropulse - Kiro Activity Metrics
//
// kiropulse reads the activity logs the Kiro IDE agent keeps on disk and
// reports productivity metrics per day, project and model.
package main

import (
	"os"

	"github.com/ccollicutt/kiropulse/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

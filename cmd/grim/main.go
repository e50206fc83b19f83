// grim decides which symbols are omitted from a translated build.
package main

import (
	"os"

	"github.com/hupe1980/grim/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

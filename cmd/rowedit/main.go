// Command rowedit serves and edits a remote record collection.
package main

import (
	"os"

	"github.com/mesh-intelligence/rowedit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

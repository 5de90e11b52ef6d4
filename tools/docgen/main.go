// Package main generates CLI reference documentation from the meli command tree.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/donaldgifford/meli-client/cmd/meli/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated pages")
	format := flag.String("format", "markdown", "page format: markdown or man")
	flag.Parse()

	if err := generate(cmd.Root(), *output, *format); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("CLI docs generated in %s/\n", *output)
}

func generate(root *cobra.Command, output, format string) error {
	if err := os.MkdirAll(output, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	root.DisableAutoGenTag = true

	var err error
	switch format {
	case "markdown":
		err = doc.GenMarkdownTree(root, output)
	case "man":
		err = doc.GenManTree(root, &doc.GenManHeader{
			Title:   "MELI",
			Section: "1",
			Source:  "meli " + cmd.Version,
		}, output)
	default:
		return fmt.Errorf("unknown format %q: expected markdown or man", format)
	}
	if err != nil {
		return fmt.Errorf("generating docs: %w", err)
	}
	return nil
}

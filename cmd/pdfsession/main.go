// Command pdfsession inspects and edits Gaussian session documents, samples
// curves for plotting, and manages the session archive.
//
// The session lives in the file named by --file (default session.json). With
// --file "" the configured durable store (PDFCORE_STORAGE_DRIVER) holds it.
package main

import (
	"fmt"
	"os"

	"pdfcore/internal/config"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr, config.Environ())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

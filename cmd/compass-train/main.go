// Command compass-train fits the classifier on synthetic data and writes the
// model file the prediction service loads.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

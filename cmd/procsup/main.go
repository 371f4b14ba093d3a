package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newApp(os.Stderr)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "procsup:", err)
		os.Exit(1)
	}
}

// environ is swapped in tests.
var environ = os.Environ

package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(Execute())
}

func exitError(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return exitCodeFor(err)
}

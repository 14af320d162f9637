// Command dialogue is a reference CLI driver for the dialogue runtime: it
// can run a script interactively from a terminal, or lint a set of
// scripts for parse/schema errors without executing them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Println("dialogue 0.1.0")
		os.Exit(0)
	case "run":
		dialogueRun(os.Args[2:])
	case "lint":
		dialogueLint(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  dialogue --version")
	fmt.Fprintln(os.Stderr, "  dialogue run <script.yaml> [--actors <n>] [--lang <tag>] [--args <args.yaml>]")
	fmt.Fprintln(os.Stderr, "  dialogue lint <glob> [<glob>...]")
}

// Command mpix is the desktop front end for the pipeline engine: a
// small grammar of `!`-chained commands builds a pipeline.Image, feeds it
// a source file, and writes (or publishes) whatever comes out the
// other end. It is the external collaborator spec.md's CLI section
// describes the grammar of, not a reimplementation of the engine
// itself — every command below is a thin translation into
// pipeline.Add/Image.Process calls.
package main

import (
	"fmt"
	"os"

	"github.com/google/shlex"
)

var verbose bool

func main() {
	args := os.Args[1:]
	args, script := splitFlags(args)
	if script != "" {
		toks, err := shlex.Split(script)
		if err != nil {
			fatal("mpix", err)
		}
		args = toks
	}
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: mpix [-v|--verbose] <command> [args...] ! <command> [args...] ! ...")
		os.Exit(1)
	}
	groups := splitChain(args)
	if err := run(groups); err != nil {
		fatal("mpix", err)
	}
}

// splitFlags pulls -v/--verbose and -e/--expr <script> off the front of
// args, leaving the command chain (if any was given positionally).
func splitFlags(args []string) (rest []string, script string) {
	i := 0
	for i < len(args) {
		switch args[i] {
		case "-v", "--verbose":
			verbose = true
			i++
			continue
		case "-e", "--expr":
			if i+1 < len(args) {
				script = args[i+1]
				i += 2
				continue
			}
		}
		break
	}
	return args[i:], script
}

// splitChain breaks a flat argument list on literal "!" tokens into one
// []string per command, exactly as spec.md's grammar describes.
func splitChain(args []string) [][]string {
	var groups [][]string
	cur := []string{}
	for _, a := range args {
		if a == "!" {
			groups = append(groups, cur)
			cur = []string{}
			continue
		}
		cur = append(cur, a)
	}
	groups = append(groups, cur)
	return groups
}

func logf(format string, v ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", v...)
	}
}

func fatal(stage string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", stage, err)
	os.Exit(1)
}

// Command slfront is the CLI driver for the front end (spec.md §6: "the
// driver constructs CompilerOptions{file_name, enable_debug_printing} and
// invokes parse(&options)").
//
// Grounded on the teacher's (grailbio-gql) main.go flag-parsing and
// log.SetFlags wiring, reduced to the single-file, non-interactive shape
// this front end needs (no REPL, no session object, no cloud storage
// backends).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/log"

	"github.com/dmihel/slfront/internal/compiler"
)

var debugFlag = flag.Bool("debug", false, "If set, the parser prints its debug trace while parsing.")

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: slfront [-debug] <source-file>")
		os.Exit(2)
	}

	results := compiler.Parse(&compiler.CompilerOptions{
		FileName:            flag.Arg(0),
		EnableDebugPrinting: *debugFlag,
	})

	log.Printf("%s: %d line(s) processed, %d error(s), %d warning(s)",
		flag.Arg(0), results.LinesProcessed, results.NumErrors, results.NumWarnings)
	if results.NumErrors > 0 {
		os.Exit(1)
	}
}

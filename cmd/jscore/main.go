// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jscore-lang/jscore"
	"github.com/jscore-lang/jscore/token"
)

const (
	title         = "jscore"
	promptPrefix  = ">>> "
	promptPrefix2 = "... "
)

var dis bool

// repl runs one long-lived VM across every line the user enters, the way
// ugo's cmd/ugo REPL threads one Eval/Globals map through every prompt.
// Because a top-level program compiles its var/let/const bindings into
// locals scoped to that single Compile call, only bare assignments
// (`x = 1`, which the compiler falls back to a global store for an
// undeclared name) and function declarations (whose names are always
// stored as globals) persist a value from one prompt to the next -- a
// plain-assignment-is-global REPL convention, not a language feature.
type repl struct {
	ctx         context.Context
	vm          *jscore.VM
	out         io.Writer
	script      strings.Builder
	isMultiline bool
}

func newREPL(ctx context.Context, stdout io.Writer) *repl {
	return &repl{
		ctx: ctx,
		vm:  jscore.NewVM(jscore.DefaultOptions()),
		out: stdout,
	}
}

func (r *repl) writeString(msg string) {
	fmt.Fprint(r.out, msg)
	fmt.Fprintln(r.out)
}

func (r *repl) execute(line string) error {
	switch {
	case !r.isMultiline && line == "":
		return nil
	case line == ".exit":
		return errExit
	case strings.HasSuffix(line, "\\"):
		r.isMultiline = true
		r.script.WriteString(line[:len(line)-1])
		r.script.WriteString("\n")
		return nil
	}

	r.script.WriteString(line)
	r.runScript()
	r.isMultiline = false
	r.script.Reset()
	return nil
}

func (r *repl) runScript() {
	src := r.script.String()
	code, diags := jscore.CompileSource("(repl)", src)
	if diags != nil {
		r.writeString(fmt.Sprintf("!   %s", diags.Error()))
		return
	}
	if dis {
		code.Fprint(r.out)
	}
	val, err := r.vm.Run(r.ctx, code)
	if err != nil {
		r.writeString(fmt.Sprintf("!   %s", err))
		return
	}
	r.writeString(fmt.Sprintf("⇦   %s", val))
}

var errExit = fmt.Errorf("exit")

func (r *repl) prefix() string {
	if r.isMultiline {
		return promptPrefix2
	}
	return promptPrefix
}

func (r *repl) printInfo() {
	fmt.Fprintln(r.out, title, "- a small JavaScript-subset engine")
	fmt.Fprintln(r.out, "Press Ctrl+D or write .exit to exit")
	fmt.Fprintln(r.out)
}

func (r *repl) run() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)
	r.printInfo()

	var (
		str string
		err error
	)
	for err == nil {
		str, err = line.Prompt(r.prefix())
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			break
		}
		if v := strings.TrimSpace(str); v != "" {
			line.AppendHistory(v)
		}
		if execErr := r.execute(str); execErr != nil {
			return execErr
		}
	}
	return err
}

func runFile(ctx context.Context, path string) error {
	var (
		src []byte
		err error
	)
	if path == "-" {
		src, err = io.ReadAll(os.Stdin)
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	if dis {
		code, diags := jscore.CompileSource(path, string(src))
		if diags != nil {
			return diags
		}
		code.Fprint(os.Stdout)
		return nil
	}

	val, err := jscore.Execute(ctx, path, string(src), jscore.DefaultOptions())
	if err != nil {
		return err
	}
	if val != nil {
		fmt.Fprintln(os.Stdout, val)
	}
	return nil
}

func parseFlags(flagset *flag.FlagSet, args []string) (filePath string, timeout time.Duration, err error) {
	flagset.BoolVar(&dis, "dis", false, "print disassembly instead of running")
	flagset.DurationVar(&timeout, "timeout", 0, "program timeout, applicable only with a script file")
	flagset.Usage = func() {
		fmt.Fprint(flagset.Output(),
			"Usage: jscore [flags] [script file]\n\n",
			"If no script file is given, a REPL starts. Use - to read from stdin.\n\n",
			"Flags:\n")
		flagset.PrintDefaults()
	}
	if err = flagset.Parse(args); err != nil {
		return
	}
	if flagset.NArg() == 1 {
		filePath = flagset.Arg(0)
	}
	return
}

func hasInputRedirection() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeNamedPipe == os.ModeNamedPipe || info.Size() > 0
}

func main() {
	filePath, timeout, err := parseFlags(flag.CommandLine, os.Args[1:])
	checkErr(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if filePath == "" && hasInputRedirection() {
		filePath = "-"
	}

	if filePath != "" {
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		checkErr(runFile(ctx, filePath))
		return
	}

	fmt.Fprintln(os.Stderr, "jscore", runtime.Version())
	err = newREPL(ctx, os.Stdout).run()
	if err != nil && err != errExit {
		checkErr(err)
	}
}

func checkErr(err error) {
	if err == nil {
		return
	}
	defer os.Exit(1)
	if diags, ok := err.(token.Diagnostics); ok {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.Error())
		}
		return
	}
	fmt.Fprintf(os.Stderr, "%s\n", err)
}

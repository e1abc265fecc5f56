package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"

	"github.com/kristofer/gravity/pkg/bytecode"
	"github.com/kristofer/gravity/pkg/optional"
	"github.com/kristofer/gravity/pkg/vm"
)

const version = "0.1.0"

func main() {
	app := &cli.Command{
		Name:  "gravity",
		Usage: "A register-based VM for the Gravity scripting language",
		Commands: []*cli.Command{
			runCommand,
			disassembleCommand,
			replCommand,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "version", Aliases: []string{"v"}, Usage: "Show version"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("version") {
				fmt.Println(version)
				return nil
			}
			if cmd.Args().Len() > 0 {
				return runFile(cmd, cmd.Args().First())
			}
			return runREPL(cmd)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "gravity:", err)
		os.Exit(1)
	}
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Load a compiled unit (JSON bytecode) and run its module initializer",
	ArgsUsage: "<file.json>",
	Flags:     gcFlags(),
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() == 0 {
			return fmt.Errorf("no file specified")
		}
		return runFile(cmd, cmd.Args().First())
	},
}

var disassembleCommand = &cli.Command{
	Name:      "disassemble",
	Aliases:   []string{"disasm"},
	Usage:     "Print a human-readable listing of a compiled unit's bytecode",
	ArgsUsage: "<file.json>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() == 0 {
			return fmt.Errorf("no file specified")
		}
		unit, err := loadUnit(cmd.Args().First())
		if err != nil {
			return err
		}
		fn, err := bytecode.DecodeUnit(unit)
		if err != nil {
			return fmt.Errorf("decoding unit: %w", err)
		}
		fmt.Println(vm.Disassemble(fn))
		return nil
	},
}

var replCommand = &cli.Command{
	Name:   "repl",
	Usage:  "Start an interactive session bound to a fresh VM",
	Flags:  gcFlags(),
	Action: func(ctx context.Context, cmd *cli.Command) error { return runREPL(cmd) },
}

func gcFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "gc-min-threshold", Value: 1 << 20, Usage: "minimum bytes allocated before the first collection"},
		&cli.IntFlag{Name: "gc-ratio", Value: 50, Usage: "percent growth over live bytes before the next collection"},
		&cli.BoolFlag{Name: "silent-null", Usage: "sets Config.SilentNull, which the VM does not read: undefined properties/methods yield null either way"},
	}
}

func configFromFlags(cmd *cli.Command) vm.Config {
	return vm.Config{
		GCMinThreshold: cmd.Int("gc-min-threshold"),
		GCRatio:        float64(cmd.Int("gc-ratio")),
		SilentNull:     cmd.Bool("silent-null"),
	}
}

func newVM(cmd *cli.Command) *vm.VM {
	machine := vm.NewVM(configFromFlags(cmd), vm.Delegate{
		ReportError: func(kind vm.ErrorKind, message string, line, col int) {
			fmt.Fprintf(os.Stderr, "%s at %d:%d: %s\n", kind, line, col, message)
		},
	})
	optional.RegisterAll(machine)
	return machine
}

func loadUnit(path string) (*bytecode.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var unit bytecode.Unit
	if err := json.Unmarshal(data, &unit); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &unit, nil
}

func runFile(cmd *cli.Command, path string) error {
	unit, err := loadUnit(path)
	if err != nil {
		return err
	}
	machine := newVM(cmd)
	result, err := machine.LoadModule(unit)
	if err != nil {
		return fmt.Errorf("running %s: %w", path, err)
	}
	if !result.IsNull() && !result.IsUndefined() {
		fmt.Println(machine.StringifyResult(result))
	}
	return nil
}

// runREPL drives an interactive loop: each line is expected to already
// be a JSON-encoded compiled unit (this repo has no parser/compiler, see
// Non-goals) loaded and executed against one persistent VM so globals
// defined by one line are visible to the next.
func runREPL(cmd *cli.Command) error {
	machine := newVM(cmd)

	rl, err := readline.New("gravity> ")
	if err != nil {
		return fallbackREPL(machine)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		if line == "" {
			continue
		}
		evalLine(machine, line)
	}
}

// fallbackREPL is used when readline cannot attach to the controlling
// terminal (e.g. piped stdin in CI), matching the teacher's plain
// bufio.Scanner loop rather than failing outright.
func fallbackREPL(machine *vm.VM) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("gravity> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			evalLine(machine, line)
		}
		fmt.Print("gravity> ")
	}
	return scanner.Err()
}

func evalLine(machine *vm.VM, line string) {
	var unit bytecode.Unit
	if err := json.Unmarshal([]byte(line), &unit); err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		return
	}
	result, err := machine.LoadModule(&unit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "runtime error:", err)
		return
	}
	if !result.IsNull() {
		fmt.Println(machine.StringifyResult(result))
	}
}

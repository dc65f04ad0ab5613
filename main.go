package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eduvm16/loader"
	"eduvm16/machine"
	"eduvm16/terminal"
)

func main() {
	var (
		debugMode bool
		logPath   string
		altScreen bool
		seed      string
	)

	rootCmd := &cobra.Command{
		Use:   "eduvm16 [image]",
		Short: "Run a binary image on the 16-bit educational machine simulator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imagePath := "./examples/out.bin"
			if len(args) == 1 {
				imagePath = args[0]
			}
			return run(imagePath, debugMode, logPath, altScreen, seed)
		},
	}

	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "single-step interactively instead of free-running")
	rootCmd.Flags().StringVar(&logPath, "log", "debug.log", "path to the always-on instruction log")
	rootCmd.Flags().BoolVar(&altScreen, "alt-screen", true, "use the terminal's alternate screen buffer")
	rootCmd.Flags().StringVar(&seed, "seed", "", "optional clock,first,second PRNG seed applied before execution")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(imagePath string, debugMode bool, logPath string, altScreen bool, seedArg string) error {
	term, err := terminal.Open(altScreen)
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	defer term.Close()

	m := machine.New(term, term)

	origin, err := loader.LoadInto(&m.Memory, imagePath)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}
	m.PC = origin

	if seedArg != "" {
		c, f, s, err := parseSeed(seedArg)
		if err != nil {
			return fmt.Errorf("parsing --seed: %w", err)
		}
		m.ASG.SetSeed(c, f, s)
	}

	if logPath != "" {
		dlog, err := machine.OpenDebugLog(logPath)
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer dlog.Close()
		m.Log = dlog
	}

	if debugMode {
		return m.RunDebug()
	}
	return m.Run()
}

func parseSeed(s string) (clock, first, second uint16, err error) {
	var a, b, c uint16
	_, err = fmt.Sscanf(s, "%d,%d,%d", &a, &b, &c)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("expected \"clock,first,second\": %w", err)
	}
	return a, b, c, nil
}

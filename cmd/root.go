/*
Copyright © 2023 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rxell/phantomuserland/pkg/plc"
)

// Process exit status.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

const usage = `plc [flags] file...

Compile .ph files to .pc class files.

Flags:
	-Ipath		- path to the directory to look for .pc class files of imported classes
	-opath		- path to put created .pc class files to
	--version	- print version/revision
`

func newRootCmd(stdout, stderr io.Writer, status *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plc [flags] file...",
		Short: "The Phantom language compiler",
		Long: `Plc compiles Phantom language source files (.ph) to class files (.pc).

Operands are processed left to right. A flag takes effect for the
files that follow it, so different files may be compiled with
different search paths or output directories. Compilation stops at
the first file with errors.`,

		// Flags are operands in their own right, interleaved with the
		// files and written with no separator (-Ilib), so cobra must
		// not parse them.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Args:               cobra.ArbitraryArgs,

		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 0 && args[0] == "--" {
				args = args[1:]
			}
			*status = compile(args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// Run the compiler on the given arguments, not including the program
// name, and return the process exit status.
func Run(args []string, stdout, stderr io.Writer) int {
	status := ExitSuccess
	root := newRootCmd(stdout, stderr, &status)
	// The leading "--" keeps cobra from taking an operand such as
	// __complete as the name of its hidden completion command.
	root.SetArgs(append([]string{"--"}, args...))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitFailure
	}
	return status
}

func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

func compile(operands []string, stdout, stderr io.Writer) int {
	if len(operands) == 0 {
		fmt.Fprint(stdout, usage)
		return ExitSuccess
	}

	logger := log.NewWithOptions(stderr, log.Options{
		Prefix: plc.Name,
		Level:  log.WarnLevel,
	})
	d := plc.NewDriver(plc.NewConfig(), stdout, stderr, logger)
	failed, err := d.Run(operands)
	if err != nil {
		// Input errors end the run like a failed compile.
		if os.IsNotExist(errors.Cause(err)) {
			fmt.Fprintf(stdout, "File not found: %v\n", err)
		} else {
			fmt.Fprintf(stdout, "IO error: %v\n", err)
		}
		logger.Debug("run stopped", "trace", fmt.Sprintf("%+v", err))
		return ExitFailure
	}
	if failed {
		return ExitFailure
	}
	return ExitSuccess
}

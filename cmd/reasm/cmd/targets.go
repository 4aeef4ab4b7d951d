/*
Copyright © 2018-2023 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blacktop/reasm/internal/colors"
	"github.com/blacktop/reasm/pkg/syntax"
)

func init() {
	rootCmd.AddCommand(targetsCmd)
}

// targetsCmd represents the targets command
var targetsCmd = &cobra.Command{
	Use:           "targets",
	Short:         "List the supported format/syntax targets",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\t%s\t\n", colors.Bold().Sprint("FORMAT"), colors.Bold().Sprint("SYNTAX"))
		for _, t := range syntax.Registry().Targets() {
			var note string
			if def, ok := syntax.DefaultSyntax(t.Format); ok && def == t.Syntax {
				note = colors.Default().Sprint("(default)")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", colors.Format().Sprint(t.Format), colors.Syntax().Sprint(t.Syntax), note)
		}
		return w.Flush()
	},
}

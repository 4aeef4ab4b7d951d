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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/apex/log"
	"github.com/briandowns/spinner"
	"github.com/caarlos0/ctrlc"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/blacktop/reasm/internal/colors"
	"github.com/blacktop/reasm/internal/config"
	"github.com/blacktop/reasm/pkg/insn/capstone"
	"github.com/blacktop/reasm/pkg/pprint"
	"github.com/blacktop/reasm/pkg/syntax"
)

func init() {
	rootCmd.AddCommand(printCmd)

	printCmd.Flags().StringSliceP("target", "t", nil, "Target(s) to print as format/syntax (i.e. elf/intel)")
	printCmd.Flags().StringP("format", "f", "", "Object format to print for (default is the model's format)")
	printCmd.Flags().StringP("syntax", "s", "", "Assembler syntax (default is intel for elf, att for macho)")
	printCmd.Flags().BoolP("debug", "d", false, "Prefix lines with addresses and print everything normally skipped")
	printCmd.Flags().StringSlice("skip-function", nil, "Function to leave out of the output")
	printCmd.Flags().StringSlice("keep-function", nil, "Function to print even if it is skipped by default")
	printCmd.Flags().StringP("output", "o", "", "Output file (with several targets: <output>.<format>.<syntax>.s)")
	viper.BindPFlag("print.targets", printCmd.Flags().Lookup("target"))
	viper.BindPFlag("print.format", printCmd.Flags().Lookup("format"))
	viper.BindPFlag("print.syntax", printCmd.Flags().Lookup("syntax"))
	viper.BindPFlag("print.debug", printCmd.Flags().Lookup("debug"))
	viper.BindPFlag("print.skip-functions", printCmd.Flags().Lookup("skip-function"))
	viper.BindPFlag("print.keep-functions", printCmd.Flags().Lookup("keep-function"))
	viper.BindPFlag("print.output", printCmd.Flags().Lookup("output"))
	printCmd.MarkFlagsMutuallyExclusive("target", "format")
	printCmd.MarkFlagsMutuallyExclusive("target", "syntax")
	printCmd.MarkFlagFilename("output", "s", "S", "asm")
	printCmd.MarkZshCompPositionalArgumentFile(1)
}

// printCmd represents the print command
var printCmd = &cobra.Command{
	Use:   "print <MODEL|BINARY>",
	Short: "Print a program model as assembly",
	Example: heredoc.Doc(`
		# Print a YAML program model in the default syntax of its format
		❯ reasm print hello.yaml

		# Print an ELF binary in AT&T syntax to a file
		❯ reasm print ./hello --syntax att -o hello.s

		# Print every target with addresses and skipped code
		❯ reasm print hello.yaml -t elf/intel -t elf/att -t macho/att --debug -o out/hello

		# Keep the crt start-up code
		❯ reasm print hello.yaml --keep-function _start --keep-function frame_dummy`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		inPath := filepath.Clean(args[0])
		output := viper.GetString("print.output")

		m, err := loadModule(inPath)
		if err != nil {
			return err
		}

		reg := syntax.Registry()
		conf, err := config.LoadConfig(reg)
		if err != nil {
			return err
		}
		targets, err := conf.Print.Resolve(reg, m.Format)
		if err != nil {
			return err
		}

		return ctrlc.Default.Run(context.Background(), func() error {
			outs := make([]bytes.Buffer, len(targets))
			stats := make([]*pprint.Stats, len(targets))

			var s *spinner.Spinner
			if output != "" {
				s = spinner.New(spinner.CharSets[38], 100*time.Millisecond)
				s.Prefix = color.BlueString("   • Printing %s... ", m.Name)
				s.Start()
			}

			var g errgroup.Group
			for i, target := range targets {
				g.Go(func() error {
					p, err := pprint.New(reg, capstone.New, conf.Print.PrinterConfig(target))
					if err != nil {
						return err
					}
					stats[i], err = p.Print(&outs[i], m)
					return errors.Wrapf(err, "failed to print %s as %s", m.Name, target)
				})
			}
			err := g.Wait()
			if s != nil {
				s.Stop()
			}
			if err != nil {
				return err
			}

			for i, target := range targets {
				if output == "" {
					if err := writeAssembly(os.Stdout, outs[i].String()); err != nil {
						return err
					}
				} else {
					path := outputPath(output, target, len(targets) > 1)
					if dir := filepath.Dir(path); dir != "." {
						if err := os.MkdirAll(dir, 0o750); err != nil {
							return errors.Wrapf(err, "failed to create %s", dir)
						}
					}
					if err := os.WriteFile(path, outs[i].Bytes(), 0o644); err != nil {
						return errors.Wrapf(err, "failed to write %s", path)
					}
					log.Infof("Created %s", colors.Path().Sprint(path))
				}
				logStats(stats[i])
			}
			return nil
		})
	},
}

func writeAssembly(w io.Writer, asm string) error {
	if viper.GetBool("color") {
		return quick.Highlight(w, asm, "gas", "terminal256", "nord")
	}
	_, err := io.WriteString(w, asm)
	return err
}

// outputPath names the file for target; several targets share one base name.
func outputPath(output string, target pprint.Target, multi bool) string {
	if !multi {
		return output
	}
	base := strings.TrimSuffix(output, filepath.Ext(output))
	return fmt.Sprintf("%s.%s.%s.s", base, target.Format, target.Syntax)
}

func logStats(st *pprint.Stats) {
	ctx := log.WithFields(log.Fields{
		"target":       st.Target.String(),
		"blocks":       humanize.Comma(int64(st.Blocks)),
		"instructions": humanize.Comma(int64(st.Instructions)),
		"data":         humanize.Comma(int64(st.DataObjects)),
		"size":         humanize.Bytes(uint64(st.Bytes)),
	})
	if st.Overlaps > 0 {
		ctx.Warnf("Printed with %s overlapping elements", colors.Warn().Sprint(st.Overlaps))
		return
	}
	ctx.Info("Printed")
}

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
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blacktop/reasm/internal/colors"
	"github.com/blacktop/reasm/internal/loader"
	"github.com/blacktop/reasm/pkg/ir"
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("output", "o", "", "Output model file (default is <BINARY>.yaml)")
	importCmd.Flags().BoolP("json", "j", false, "Write the model as JSON")
	viper.BindPFlag("import.output", importCmd.Flags().Lookup("output"))
	viper.BindPFlag("import.json", importCmd.Flags().Lookup("json"))
	importCmd.MarkFlagFilename("output", "yaml", "yml", "json")
	importCmd.MarkZshCompPositionalArgumentFile(1)
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <BINARY>",
	Short: "Import a Mach-O or ELF binary into a program model file",
	Example: heredoc.Doc(`
		# Write hello.yaml
		❯ reasm import ./hello

		# Write JSON to a chosen path
		❯ reasm import ./hello --json -o /tmp/hello.json`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		binPath := filepath.Clean(args[0])

		output := viper.GetString("import.output")
		if output == "" {
			ext := ".yaml"
			if viper.GetBool("import.json") {
				ext = ".json"
			}
			output = strings.TrimSuffix(filepath.Base(binPath), filepath.Ext(binPath)) + ext
		}

		m, err := loader.Open(binPath)
		if err != nil {
			return err
		}
		if err := ir.Save(output, m); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"sections": humanize.Comma(int64(len(m.Sections()))),
			"symbols":  humanize.Comma(int64(len(m.Symbols()))),
			"blocks":   humanize.Comma(int64(len(m.Blocks()))),
			"data":     humanize.Comma(int64(len(m.DataObjects()))),
		}).Infof("Created %s", colors.Path().Sprint(output))

		return nil
	},
}

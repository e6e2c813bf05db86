package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AmyLu0828/the-resume-hub/internal/compile"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a LaTeX document to PDF",
	Long:  "Compile a LaTeX document to PDF with the configured toolchain. The toolchain log is printed when compilation fails.",
	RunE:  runCompile,
}

var (
	compileInputFile  string
	compileOutputFile string
)

func init() {
	compileCmd.Flags().StringVarP(&compileInputFile, "in", "i", "", "Path to .tex file (\"-\" for stdin)")
	compileCmd.Flags().StringVarP(&compileOutputFile, "out", "o", "", "Path to output PDF file")

	_ = compileCmd.MarkFlagRequired("in")
	_ = compileCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, _ []string) error {
	source, err := readInput(compileInputFile)
	if err != nil {
		return err
	}

	pdf, err := newCompiler(appConfig).Compile(cmd.Context(), string(source))
	if err != nil {
		var compErr *compile.CompilationError
		if errors.As(err, &compErr) && compErr.LogOutput != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), compErr.LogOutput)
		}
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), compileOutputFile, pdf); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", compileOutputFile, len(pdf))
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/newsloop/newsloop/report"
)

func convertCmd() *cobra.Command {
	var (
		formats []string
		all     bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "convert <report.json>",
		Short: "Convert a saved JSON report to md, txt or html",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormats(formats); err != nil {
				return err
			}
			if all {
				formats = report.AllFormats
			}

			rep, err := report.Load(args[0])
			if err != nil {
				return err
			}

			// An explicit output path writes a single file; otherwise the
			// converted files land next to the JSON source.
			if output != "" {
				if len(formats) != 1 {
					return fmt.Errorf("--output takes exactly one format, got %d", len(formats))
				}
				content, err := rep.Render(formats[0])
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
					return err
				}
				fmt.Println("Wrote " + output)
				return nil
			}

			dir := filepath.Dir(args[0])
			written, err := rep.Save(dir, formats...)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Println("Wrote " + path)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{report.FormatMarkdown}, "target formats: md, txt, html")
	cmd.Flags().BoolVar(&all, "all", false, "convert to every format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write a single converted file to this path")
	return cmd
}

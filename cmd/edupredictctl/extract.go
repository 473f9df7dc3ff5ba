package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noah-isme/edupredict-api/pkg/insight"
)

type extractOutput struct {
	Structured bool           `json:"structured" yaml:"structured"`
	Method     insight.Method `json:"method" yaml:"method"`
	Value      interface{}    `json:"value,omitempty" yaml:"value,omitempty"`
	Raw        string         `json:"raw,omitempty" yaml:"raw,omitempty"`
}

func newExtractCmd(v *viper.Viper) *cobra.Command {
	var shape string
	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "Recover JSON from free-form model output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := insight.Shape(shape)
			if s != insight.ShapeObject && s != insight.ShapeArray {
				return fmt.Errorf("unknown shape %q (object|array)", shape)
			}
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			result := insight.Extract[interface{}](raw, s)
			out := extractOutput{Structured: result.Structured, Method: result.Method}
			if result.Structured {
				out.Value = result.Value
			} else {
				out.Raw = result.Raw
			}

			format := outputFormat(v)
			if format == formatText {
				format = formatJSON
				style := goodStyle
				if !result.Structured {
					style = warnStyle
				}
				fmt.Fprintln(cmd.ErrOrStderr(), style.Render("method: "+string(result.Method)))
			}
			return printStructured(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().StringVar(&shape, "shape", string(insight.ShapeObject), "Expected top-level JSON shape (object|array)")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

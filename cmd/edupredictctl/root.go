package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noah-isme/edupredict-api/pkg/config"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	root := &cobra.Command{
		Use:   "edupredictctl",
		Short: "Offline tools for the EduPredict scoring engine",
		Long: `edupredictctl computes weighted performance scores, recovers structured
insight from model output and simulates XP awards without a running server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch v.GetString("output") {
			case formatText, formatJSON, formatYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (text|json|yaml)", v.GetString("output"))
			}
		},
	}

	root.PersistentFlags().StringP("output", "o", formatText, "Output format (text|json|yaml)")
	_ = v.BindPFlag("output", root.PersistentFlags().Lookup("output"))

	root.AddCommand(
		newScoreCmd(v),
		newExtractCmd(v),
		newXPCmd(v),
		newWeightsCmd(v),
	)
	return root
}

func outputFormat(v *viper.Viper) string {
	return v.GetString("output")
}

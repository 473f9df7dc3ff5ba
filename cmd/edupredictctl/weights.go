package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/edupredict-api/pkg/performance"
)

// weightFile is the YAML layout of a custom weight set:
//
//	name: balanced
//	weights:
//	  attendance: 0.25
//	  internal: 0.25
type weightFile struct {
	Name    string             `yaml:"name"`
	Weights map[string]float64 `yaml:"weights"`
}

func loadWeightFile(path string) (string, performance.WeightSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read weight file: %w", err)
	}
	var file weightFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", nil, fmt.Errorf("parse weight file %s: %w", path, err)
	}
	set := make(performance.WeightSet, len(file.Weights))
	for name, weight := range file.Weights {
		c, ok := performance.ParseCategory(name)
		if !ok {
			return "", nil, fmt.Errorf("unknown category %q in %s", name, path)
		}
		set[c] = weight
	}
	if err := set.Validate(); err != nil {
		return "", nil, err
	}
	name := file.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return name, set, nil
}

// resolveWeights accepts a named set or a path to a YAML file.
func resolveWeights(ref string) (performance.WeightSet, error) {
	ext := strings.ToLower(filepath.Ext(ref))
	if ext == ".yaml" || ext == ".yml" {
		_, set, err := loadWeightFile(ref)
		return set, err
	}
	return performance.WeightsByName(ref)
}

func newWeightsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Inspect and validate weight sets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file.yaml>",
		Short: "Check a YAML weight set is non-negative and sums to 1.0",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, set, err := loadWeightFile(args[0])
			if err != nil {
				return err
			}
			if format := outputFormat(v); format != formatText {
				weights := make(map[string]float64, len(set))
				for c, w := range set {
					weights[string(c)] = w
				}
				return printStructured(cmd.OutOrStdout(), format, weightFile{Name: name, Weights: weights})
			}
			rows := make([]row, 0, len(set)+1)
			for _, c := range set.Categories() {
				rows = append(rows, row{label: string(c), value: strconv.FormatFloat(set[c], 'f', -1, 64)})
			}
			sum := goodStyle
			rows = append(rows, row{label: "sum", value: strconv.FormatFloat(set.Sum(), 'f', 4, 64), style: &sum})
			printRows(cmd.OutOrStdout(), "Weight set "+name+" is valid", rows)
			return nil
		},
	})
	return cmd
}

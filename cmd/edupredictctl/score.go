package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/pkg/performance"
)

type scoreOutput struct {
	Weights         string                           `json:"weights" yaml:"weights"`
	Scheme          string                           `json:"scheme" yaml:"scheme"`
	Normalized      map[performance.Category]float64 `json:"normalized" yaml:"normalized"`
	FinalScore      int                              `json:"finalScore" yaml:"finalScore"`
	PassProbability int                              `json:"passProbability" yaml:"passProbability"`
	Classification  string                           `json:"classification" yaml:"classification"`
}

func newScoreCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute a weighted score and classify it",
		Long: `Each category flag takes "value" (out of 100) or "value/max".
Only the categories you pass are scored; categories the weight set names but
you omit contribute zero.`,
		Example: `  edupredictctl score --attendance 45/50 --internal 40/50 --external 70 --subject-perf 80
  edupredictctl score --weights legacy --scheme success --attendance 90 --assignments 80 --quizzes 70 --participation 60`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make(map[performance.Category]performance.MetricInput)
			for _, c := range performance.KnownCategories() {
				flag := categoryFlag(c)
				if !cmd.Flags().Changed(flag) {
					continue
				}
				raw, _ := cmd.Flags().GetString(flag)
				in, err := parseMetric(raw)
				if err != nil {
					return fmt.Errorf("--%s: %w", flag, err)
				}
				inputs[c] = in
			}
			if len(inputs) == 0 {
				return fmt.Errorf("at least one category flag is required")
			}
			if err := performance.CheckInputs(inputs); err != nil {
				return err
			}

			weightsRef := v.GetString("SCORING_DEFAULT_WEIGHTS")
			weights, err := resolveWeights(weightsRef)
			if err != nil {
				return err
			}
			scheme := performance.RiskScheme(v.GetString("scheme"))

			logger := zap.NewNop()
			if v.GetBool("verbose") {
				if dev, err := zap.NewDevelopment(); err == nil {
					logger = dev
				}
			}
			normalizer := performance.NewNormalizer(v.GetBool("SCORING_STRICT"), logger)
			normalized, err := normalizer.NormalizeAll(inputs)
			if err != nil {
				return err
			}
			result, err := performance.Score(normalized, weights)
			if err != nil {
				return err
			}
			label, err := performance.Classify(scheme, result.FinalScore)
			if err != nil {
				return err
			}

			out := scoreOutput{
				Weights:         weightsRef,
				Scheme:          string(scheme),
				Normalized:      normalized,
				FinalScore:      result.FinalScore,
				PassProbability: result.PassProbability,
				Classification:  label,
			}
			if format := outputFormat(v); format != formatText {
				return printStructured(cmd.OutOrStdout(), format, out)
			}
			printScore(cmd, out)
			return nil
		},
	}

	for _, c := range performance.KnownCategories() {
		cmd.Flags().String(categoryFlag(c), "", fmt.Sprintf("%s as value or value/max", c))
	}
	cmd.Flags().String("weights", performance.WeightsCurrent, "Weight set: legacy|current|prediction or a YAML file")
	cmd.Flags().String("scheme", string(performance.SchemeRisk), "Classification scheme: risk|success")
	cmd.Flags().Bool("strict", true, "Fail on invalid maxima instead of scoring them as zero")
	cmd.Flags().BoolP("verbose", "v", false, "Log lenient normalization warnings")

	_ = v.BindPFlag("SCORING_DEFAULT_WEIGHTS", cmd.Flags().Lookup("weights"))
	_ = v.BindPFlag("SCORING_STRICT", cmd.Flags().Lookup("strict"))
	_ = v.BindPFlag("scheme", cmd.Flags().Lookup("scheme"))
	_ = v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	return cmd
}

func printScore(cmd *cobra.Command, out scoreOutput) {
	w := cmd.OutOrStdout()
	style := tierStyle(out.Classification)
	rows := []row{
		{label: "Weights", value: out.Weights},
		{label: "Final score", value: strconv.Itoa(out.FinalScore), style: &style},
		{label: "Pass probability", value: strconv.Itoa(out.PassProbability) + "%"},
		{label: "Classification", value: out.Classification, style: &style},
	}
	printRows(w, "Score", rows)

	categories := make([]string, 0, len(out.Normalized))
	for c := range out.Normalized {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	normalized := make([]row, 0, len(categories))
	for _, c := range categories {
		normalized = append(normalized, row{label: c, value: strconv.FormatFloat(out.Normalized[performance.Category(c)], 'f', 2, 64)})
	}
	printRows(w, "Normalized", normalized)
}

// categoryFlag turns subjectPerf into subject-perf.
func categoryFlag(c performance.Category) string {
	var b strings.Builder
	for _, r := range string(c) {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func parseMetric(raw string) (performance.MetricInput, error) {
	valuePart, maxPart, hasMax := strings.Cut(strings.TrimSpace(raw), "/")
	value, err := strconv.ParseFloat(strings.TrimSpace(valuePart), 64)
	if err != nil {
		return performance.MetricInput{}, fmt.Errorf("invalid value %q", valuePart)
	}
	max := 100.0
	if hasMax {
		max, err = strconv.ParseFloat(strings.TrimSpace(maxPart), 64)
		if err != nil {
			return performance.MetricInput{}, fmt.Errorf("invalid max %q", maxPart)
		}
	}
	return performance.MetricInput{Value: value, Max: max}, nil
}

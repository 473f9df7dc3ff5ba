package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noah-isme/edupredict-api/pkg/gamification"
)

type xpOutput struct {
	Before gamification.State   `json:"before" yaml:"before"`
	After  gamification.State   `json:"after" yaml:"after"`
	Events []gamification.Event `json:"events" yaml:"events"`
}

func newXPCmd(v *viper.Viper) *cobra.Command {
	def := gamification.DefaultState()
	var (
		state  gamification.State
		amount int
	)
	cmd := &cobra.Command{
		Use:     "xp",
		Short:   "Apply an XP award to a state and list level-ups",
		Example: `  edupredictctl xp --amount 2600`,
		RunE: func(cmd *cobra.Command, args []string) error {
			next, events, err := gamification.AddXP(state, amount)
			if err != nil {
				return err
			}
			out := xpOutput{Before: state, After: next, Events: events}
			if format := outputFormat(v); format != formatText {
				return printStructured(cmd.OutOrStdout(), format, out)
			}

			w := cmd.OutOrStdout()
			printRows(w, "State", []row{
				{label: "XP", value: fmt.Sprintf("%d -> %d", state.XP, next.XP)},
				{label: "Level", value: fmt.Sprintf("%d -> %d", state.Level, next.Level)},
				{label: "Next level XP", value: strconv.Itoa(next.NextLevelXP)},
				{label: "XP to next", value: strconv.Itoa(next.XPToNextLevel())},
				{label: "Title", value: next.Title},
			})
			if len(events) == 0 {
				return nil
			}
			fmt.Fprintln(w, headingStyle.Render("Events"))
			for _, e := range events {
				fmt.Fprintf(w, "  %s %s\n", goodStyle.Render(e.Heading), e.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&state.XP, "xp", def.XP, "Current XP within the level")
	cmd.Flags().IntVar(&state.Level, "level", def.Level, "Current level")
	cmd.Flags().IntVar(&state.NextLevelXP, "next", def.NextLevelXP, "XP required for the next level")
	cmd.Flags().StringVar(&state.Title, "title", def.Title, "Current title")
	cmd.Flags().IntVar(&amount, "amount", 0, "XP to award")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

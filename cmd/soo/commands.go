package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/service"
)

func parseCategory(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || !domain.IsValidCategory(id) {
		return 0, fmt.Errorf("invalid category %q (%d-%d)", arg, domain.MinCategoryID, domain.MaxCategoryID)
	}
	return id, nil
}

func (c *cli) nameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "name <name>",
		Short: "Set your display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.withStore(func(_ *cobra.Command, args []string) error {
			if err := c.store.SetName(strings.Join(args, " ")); err != nil {
				return err
			}
			c.printf("Name set to %s\n", c.store.Name())
			return nil
		}),
	}
}

func (c *cli) goalCmd() *cobra.Command {
	goal := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals (one per life area)",
	}

	var metric string
	set := &cobra.Command{
		Use:   "set <category> <text>",
		Short: "Set or update the goal for a life area",
		Args:  cobra.MinimumNArgs(2),
		RunE: c.withStore(func(_ *cobra.Command, args []string) error {
			id, err := parseCategory(args[0])
			if err != nil {
				return err
			}
			g, err := c.store.SetGoal(id, strings.Join(args[1:], " "), metric)
			if err != nil {
				return err
			}
			cat := domain.CategoryOrDefault(id)
			c.printf("%s %s: %s (score %d/100)\n", cat.Icon, cat.Name, g.Text, c.store.Score(id))
			return nil
		}),
	}
	set.Flags().StringVar(&metric, "metric", "", "how progress is measured")

	rm := &cobra.Command{
		Use:   "rm <category>",
		Short: "Remove a goal; its history is kept",
		Args:  cobra.ExactArgs(1),
		RunE: c.withStore(func(_ *cobra.Command, args []string) error {
			id, err := parseCategory(args[0])
			if err != nil {
				return err
			}
			if err := c.store.RemoveGoal(id); err != nil {
				return err
			}
			c.printf("Removed goal for %s\n", domain.CategoryOrDefault(id).Name)
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active goals",
		Args:  cobra.NoArgs,
		RunE: c.withStore(func(_ *cobra.Command, _ []string) error {
			ids := c.store.GoalIDs()
			if len(ids) == 0 {
				c.printf("No goals yet. Try: soo goal set 1 \"Run a 5k\"\n")
				return nil
			}
			for _, id := range ids {
				g, _ := c.store.Goal(id)
				cat := domain.CategoryOrDefault(id)
				c.printf("%2d %s %-22s %3d/100 [%s] %s\n", id, cat.Icon, cat.Name, c.store.Score(id), c.store.CheckinState(id), g.Text)
			}
			return nil
		}),
	}

	goal.AddCommand(set, rm, list)
	return goal
}

func (c *cli) checkinCmd() *cobra.Command {
	var mood int
	cmd := &cobra.Command{
		Use:   "checkin <category> <note>",
		Short: "Record today's check-in and get the coach's score",
		Args:  cobra.MinimumNArgs(2),
		RunE: c.withStore(func(cmd *cobra.Command, args []string) error {
			id, err := parseCategory(args[0])
			if err != nil {
				return err
			}
			res, err := c.store.RecordCheckin(cmd.Context(), id, strings.Join(args[1:], " "), mood)
			if err != nil {
				return err
			}
			c.printf("%s\n", res.Feedback)
			if c.store.Round() == service.RoundComplete {
				c.printf("\nAll goals checked in for %s.\n", c.store.Today())
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&mood, "mood", 3, "mood 1-5")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's dashboard",
		Args:  cobra.NoArgs,
		RunE: c.withStore(func(_ *cobra.Command, _ []string) error {
			d := service.BuildDashboard(c.store)
			greeting := d.Greeting
			if d.Name != "" {
				greeting += ", " + d.Name
			}
			c.printf("%s. %q\n", greeting, d.Quote)
			c.printf("%s  average %d/100  round %s\n\n", d.Today, d.AverageScore, d.Round)
			for _, card := range d.Goals {
				c.printf("%s %-22s %3d/100 %-7s streak %d  %s\n",
					card.Category.Icon, card.Category.Name, card.Score, card.Trend, card.Streak, card.State)
			}
			if len(d.NeedsCheckin) > 0 {
				c.printf("\n%d check-in(s) waiting.\n", len(d.NeedsCheckin))
			}
			return nil
		}),
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <category>",
		Short: "Show a goal's history and running journey",
		Args:  cobra.ExactArgs(1),
		RunE: c.withStore(func(_ *cobra.Command, args []string) error {
			id, err := parseCategory(args[0])
			if err != nil {
				return err
			}
			logs := c.store.Logs(id)
			if _, ok := c.store.Goal(id); !ok && len(logs) == 0 {
				return service.ErrGoalNotFound
			}
			s := service.ComputeGoalStats(logs, c.store.Now())
			c.printf("%s: score %d/100, %d check-ins, streak %d, trend %s\n",
				domain.CategoryOrDefault(id).Name, c.store.Score(id), s.TotalLogs, s.Streak, s.Trend)
			if s.AverageMood != nil {
				c.printf("avg mood %.1f, best day %+d\n", *s.AverageMood, *s.BestDelta)
			}
			for _, p := range service.RunningJourney(logs, service.JourneyWindowTimeline) {
				c.printf("  %s %+3d -> %d\n", p.Date, p.Delta, p.Score)
			}
			return nil
		}),
	}
}

func (c *cli) visionCmd() *cobra.Command {
	var regenerate bool
	cmd := &cobra.Command{
		Use:   "vision",
		Short: "Show or regenerate your Life Vision",
		Args:  cobra.NoArgs,
		RunE: c.withStore(func(cmd *cobra.Command, _ []string) error {
			svc := service.NewVisionService(c.store, c.coach, nil)
			if regenerate {
				out, err := svc.Synthesize(cmd.Context())
				if err != nil {
					return err
				}
				if !out.Regenerated {
					c.printf("%s\n", out.Message)
				}
			}
			if v := svc.Current(); v != "" {
				c.printf("%s\n", v)
			} else {
				c.printf("No vision yet. Run: soo vision --regenerate\n")
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "ask the coach to synthesize a new vision")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the whole account document",
		Args:  cobra.NoArgs,
		RunE: c.withStore(func(_ *cobra.Command, _ []string) error {
			account := c.store.Snapshot()
			switch format {
			case "json":
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(account)
			case "yaml":
				enc := yaml.NewEncoder(c.out)
				enc.SetIndent(2)
				if err := enc.Encode(account); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (yaml|json)", format)
			}
		}),
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "yaml or json")
	return cmd
}

func hashPassphraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-passphrase <passphrase>",
		Short: "Print the bcrypt hash for ACCESS_PASSPHRASE_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := service.HashPassphrase(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

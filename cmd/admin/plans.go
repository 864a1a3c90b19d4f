package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/spf13/cobra"
)

func newPlansCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage billing plans",
		Long: `Manage the plans a signup can select with ?plan=<key>.

Examples:
  admin plans list
  admin plans create --key=startup --name="Startup" --price=price_123 --setup-billing`,
	}

	cmd.AddCommand(newPlansListCmd(open))
	cmd.AddCommand(newPlansCreateCmd(open))

	return cmd
}

func newPlansListCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			plans, err := q.ListPlans(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(plans) == 0 {
				fmt.Fprintln(out, "No plans found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tPRICE\tSETUP BILLING\tACTIVE")
			for _, p := range plans {
				price := p.PriceID
				if price == "" {
					price = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Key, p.Name, price, yesNo(p.DefaultShouldSetupBilling), yesNo(p.IsActive))
			}
			return w.Flush()
		},
	}
}

func newPlansCreateCmd(open openFunc) *cobra.Command {
	var params repository.CreatePlanParams

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Key = strings.TrimSpace(params.Key)
			params.Name = strings.TrimSpace(params.Name)
			if params.Key == "" {
				return errors.New("--key must not be blank")
			}
			if params.Name == "" {
				params.Name = params.Key
			}

			q, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			plan, err := q.CreatePlan(cmd.Context(), params)
			if repository.IsUniqueViolation(err) {
				return fmt.Errorf("plan %q already exists", params.Key)
			}
			if err != nil {
				return fmt.Errorf("failed to create plan: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created plan %s (%s)\n", plan.Key, plan.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Key, "key", "", "plan key used in ?plan= (required)")
	cmd.Flags().StringVar(&params.Name, "name", "", "display name (defaults to the key)")
	cmd.Flags().StringVar(&params.PriceID, "price", "", "processor price ID for checkout")
	cmd.Flags().BoolVar(&params.DefaultShouldSetupBilling, "setup-billing", false, "teams on this plan must set up billing")
	cmd.Flags().BoolVar(&params.IsActive, "active", true, "whether signups may select the plan")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

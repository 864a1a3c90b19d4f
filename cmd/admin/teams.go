package main

import (
	"fmt"

	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTeamsCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Manage teams",
	}

	cmd.AddCommand(newTeamsMarkIngestedCmd(open))

	return cmd
}

// newTeamsMarkIngestedCmd flags a team as having sent its first event, which
// stops the no-ingestion follow-up email.
func newTeamsMarkIngestedCmd(open openFunc) *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "mark-ingested <team-id>",
		Short: "Mark a team as having ingested events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid team ID %q: %w", args[0], err)
			}

			q, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := q.SetTeamIngestedEvent(cmd.Context(), repository.SetTeamIngestedEventParams{
				ID:            teamID,
				IngestedEvent: !unset,
			})
			if err != nil {
				return fmt.Errorf("failed to update team: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("team %s not found", teamID)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Team %s ingested_event=%t\n", teamID, !unset)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unset, "clear", false, "clear the flag instead of setting it")

	return cmd
}

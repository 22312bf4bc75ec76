package commands

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var assignments []string

	cmd := &cobra.Command{
		Use:   "update MODEL ID",
		Short: "Update a record",
		Long: `Update attributes of a record.

Attributes are written as name=value. Dotted names update linked records:

  fulfil update sale.sale 42 -s reference=SO42 -s shipment_address.city=Toronto`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			attrs, err := parseAssignments(assignments)
			if err != nil {
				return err
			}

			if len(attrs) == 0 {
				return fmt.Errorf("%w: use --set name=value", constants.ErrInvalidAssignment)
			}

			cli, err := newClient(cmd)
			if err != nil {
				return err
			}

			record, err := cli.NewResource(args[0], map[string]any{"id": id})
			if err != nil {
				return fmt.Errorf("failed to build %s %d: %w", args[0], id, err)
			}

			if !record.TryUpdate(cmd.Context(), attrs) {
				_ = renderErrors(cmd.ErrOrStderr(), record.Errors())

				return fmt.Errorf("%w: %s %d: %s", constants.ErrUpdateFailed, args[0], id,
					strings.Join(record.Errors().FullMessages(), "; "))
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %d\n", args[0], id)

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&assignments, "set", "s", nil, "attribute as name=value (repeatable)")

	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var assignments []string

	cmd := &cobra.Command{
		Use:   "create MODEL",
		Short: "Create a record",
		Long:  "Create a record from name=value attributes and print the new id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseAssignments(assignments)
			if err != nil {
				return err
			}

			cli, err := newClient(cmd)
			if err != nil {
				return err
			}

			relation, err := buildRelation(cli, args[0], nil, nil)
			if err != nil {
				return err
			}

			ids, err := relation.Create(cmd.Context(), attrs)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()

			switch viper.GetString("output") {
			case constants.FormatJSON:
				return encodeJSON(out, map[string]any{"model": args[0], "ids": ids})
			case constants.FormatYAML:
				return yaml.NewEncoder(out).Encode(map[string]any{"model": args[0], "ids": ids})
			default:
				for _, id := range ids {
					_, _ = fmt.Fprintf(out, "Created %s %d\n", args[0], id)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&assignments, "set", "s", nil, "attribute as name=value (repeatable)")

	return cmd
}

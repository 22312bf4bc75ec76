package commands

import (
	"fmt"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	var (
		where  []string
		fields []string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:     "search MODEL",
		Aliases: []string{"find", "ls"},
		Short:   "Search records",
		Long: `Search records of a model.

Conditions are written as field,operator,value. Use '|' to separate the
values of the in and "not in" operators:

  fulfil search sale.sale -w state,in,draft|confirmed -f reference,total_amount`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newClient(cmd)
			if err != nil {
				return err
			}

			relation, err := buildRelation(cli, args[0], where, fields)
			if err != nil {
				return err
			}

			if limit > 0 {
				relation = relation.Limit(limit)
			}

			if offset > 0 {
				relation = relation.Offset(offset)
			}

			rows, err := relation.All(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to search %s: %w", args[0], err)
			}

			return renderResources(cmd.OutOrStdout(), viper.GetString("output"), rows, fields)
		},
	}

	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "condition as field,operator,value (repeatable)")
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "fields to return")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of records to skip")

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "get MODEL ID",
		Short: "Get a record",
		Long:  "Display a single record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			cli, err := newClient(cmd)
			if err != nil {
				return err
			}

			relation, err := buildRelation(cli, args[0], nil, fields)
			if err != nil {
				return err
			}

			record, err := relation.FindByStrict(cmd.Context(), "id", "=", id)
			if err != nil {
				return fmt.Errorf("failed to get %s %d: %w", args[0], id, err)
			}

			return renderResources(cmd.OutOrStdout(), viper.GetString("output"), []*fulfil.Resource{record}, fields)
		},
	}

	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "fields to return")

	return cmd
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	var where []string

	cmd := &cobra.Command{
		Use:   "count MODEL",
		Short: "Count records",
		Long:  "Count the records of a model that match every condition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newClient(cmd)
			if err != nil {
				return err
			}

			relation, err := buildRelation(cli, args[0], where, nil)
			if err != nil {
				return err
			}

			count, err := relation.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()

			switch viper.GetString("output") {
			case constants.FormatJSON:
				return encodeJSON(out, map[string]any{"model": args[0], "count": count})
			case constants.FormatYAML:
				return yaml.NewEncoder(out).Encode(map[string]any{"model": args[0], "count": count})
			default:
				_, _ = fmt.Fprintln(out, count)
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "condition as field,operator,value (repeatable)")

	return cmd
}

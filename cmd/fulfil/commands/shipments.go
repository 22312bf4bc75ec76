package commands

import (
	"fmt"

	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewShipmentsCommand creates the shipments command group.
func NewShipmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "shipments",
		Aliases: []string{"shipment", "sh"},
		Short:   "Manage customer shipments",
		Long:    "List customer shipments and put them on or off hold",
	}

	cmd.AddCommand(newShipmentsListCommand())
	cmd.AddCommand(newShipmentsHoldCommand())
	cmd.AddCommand(newShipmentsUnholdCommand())

	return cmd
}

func newShipmentsListCommand() *cobra.Command {
	var (
		where  []string
		fields []string
		onHold bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customer shipments",
		Long:  "List customer shipments, optionally only those on hold",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newClient(cmd)
			if err != nil {
				return err
			}

			relation, err := buildRelation(cli, cli.CustomerShipments().Query().ModelName(), where, fields)
			if err != nil {
				return err
			}

			if onHold {
				relation = relation.Where("on_hold", "=", true)
			}

			if limit > 0 {
				relation = relation.Limit(limit)
			}

			rows, err := relation.All(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list shipments: %w", err)
			}

			return renderResources(cmd.OutOrStdout(), viper.GetString("output"), rows, fields)
		},
	}

	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "condition as field,operator,value (repeatable)")
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", []string{"reference", "state", "on_hold", "hold_reason"}, "fields to return")
	cmd.Flags().BoolVar(&onHold, "on-hold", false, "only shipments on hold")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of shipments")

	return cmd
}

func newShipmentsHoldCommand() *cobra.Command {
	var (
		note   string
		reason string
	)

	cmd := &cobra.Command{
		Use:   "hold ID [ID...]",
		Short: "Put shipments on hold",
		Long:  "Put one or more customer shipments on hold with an optional note and reason",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			cli, err := newClient(cmd)
			if err != nil {
				return err
			}

			err = cli.CustomerShipments().Hold(cmd.Context(), ids, fulfil.HoldOptions{Note: note, Reason: reason})
			if err != nil {
				return shipmentActionError(cmd, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Held %d shipment(s)\n", len(ids))

			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "hold note")
	cmd.Flags().StringVar(&reason, "reason", "", "hold reason")

	return cmd
}

func newShipmentsUnholdCommand() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "unhold ID [ID...]",
		Short: "Release shipments from hold",
		Long:  "Release one or more customer shipments from hold with an optional note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			cli, err := newClient(cmd)
			if err != nil {
				return err
			}

			err = cli.CustomerShipments().Unhold(cmd.Context(), ids, note)
			if err != nil {
				return shipmentActionError(cmd, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Released %d shipment(s)\n", len(ids))

			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "unhold note")

	return cmd
}

// shipmentActionError reports the classified API error on stderr.
func shipmentActionError(cmd *cobra.Command, err error) error {
	errs := &fulfil.Errors{}
	errs.AddEntry(fulfil.Classify(err))
	_ = renderErrors(cmd.ErrOrStderr(), errs)

	return err
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var (
		where      []string
		fields     []string
		file       string
		format     string
		batchSize  int
		maxRetries int
		retryWait  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export MODEL",
		Short: "Export records in batches",
		Long: `Export every matching record, one batch at a time.

JSON output writes one record per line. YAML output writes one document per
record. Rate limited batches are retried before the export gives up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			encode, err := recordEncoder(format)
			if err != nil {
				return err
			}

			cli, err := newClient(cmd)
			if err != nil {
				return err
			}

			relation, err := buildRelation(cli, args[0], where, fields)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if file != "" {
				err = validateOutputPath(file)
				if err != nil {
					return err
				}

				var handle *os.File

				handle, err = os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.ConfigFilePerm)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}

				defer func() {
					if closeErr := handle.Close(); closeErr != nil && err == nil {
						err = fmt.Errorf("failed to close %s: %w", file, closeErr)
					}
				}()

				out = handle
			}

			write := encode(out)
			exported := 0

			opts := []fulfil.BatchOption{fulfil.WithBatchSize(batchSize), fulfil.WithMaxRetries(maxRetries)}
			if retryWait > 0 {
				opts = append(opts, fulfil.WithRetryWait(retryWait, retryWait*2))
			}

			err = relation.FindEach(cmd.Context(), func(record *fulfil.Resource) error {
				exported++

				return write(plainValue(map[string]any(record.ToMap())))
			}, opts...)
			if err != nil {
				return fmt.Errorf("failed to export %s after %d records: %w", args[0], exported, err)
			}

			if file != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", exported, file)
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "condition as field,operator,value (repeatable)")
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "fields to export")
	cmd.Flags().StringVar(&file, "file", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&format, "format", constants.FormatJSON, "record format (json, yaml)")
	cmd.Flags().IntVar(&batchSize, "batch-size", constants.DefaultBatchSize, "records per request")
	cmd.Flags().IntVar(&maxRetries, "max-retries", constants.DefaultBatchRetries, "rate limit retries per batch")
	cmd.Flags().DurationVar(&retryWait, "retry-wait", 0, "wait before retrying a rate limited batch")

	return cmd
}

// recordEncoder returns a streaming encoder for the export format.
func recordEncoder(format string) (func(io.Writer) func(any) error, error) {
	switch format {
	case constants.FormatJSON:
		return func(out io.Writer) func(any) error {
			encoder := json.NewEncoder(out)

			return func(value any) error { return encoder.Encode(value) }
		}, nil
	case constants.FormatYAML:
		return func(out io.Writer) func(any) error {
			encoder := yaml.NewEncoder(out)

			return func(value any) error { return encoder.Encode(value) }
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidOutput, format)
	}
}

package commands

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// parseCondition turns "field,operator,value" into a where condition.
// Values for in and "not in" are separated by '|'.
func parseCondition(expr string) ([]any, error) {
	const parts = 3

	fields := strings.SplitN(expr, ",", parts)
	if len(fields) != parts {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidCondition, expr)
	}

	name := strings.TrimSpace(fields[0])
	operator := strings.ToLower(strings.TrimSpace(fields[1]))

	if name == "" || operator == "" {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidCondition, expr)
	}

	if operator == "in" || operator == "not in" {
		items := strings.Split(fields[2], "|")
		values := make([]any, 0, len(items))

		for _, item := range items {
			values = append(values, parseValue(item))
		}

		return []any{name, operator, values}, nil
	}

	return []any{name, operator, parseValue(fields[2])}, nil
}

// parseConditions parses every --where flag.
func parseConditions(exprs []string) ([][]any, error) {
	conditions := make([][]any, 0, len(exprs))

	for _, expr := range exprs {
		condition, err := parseCondition(expr)
		if err != nil {
			return nil, err
		}

		conditions = append(conditions, condition)
	}

	return conditions, nil
}

// parseAssignment turns "name=value" into an attribute name and value.
func parseAssignment(expr string) (string, any, error) {
	name, value, found := strings.Cut(expr, "=")

	name = strings.TrimSpace(name)
	if !found || name == "" {
		return "", nil, fmt.Errorf("%w: %q", constants.ErrInvalidAssignment, expr)
	}

	return name, parseValue(value), nil
}

func parseAssignments(exprs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(exprs))

	for _, expr := range exprs {
		name, value, err := parseAssignment(expr)
		if err != nil {
			return nil, err
		}

		attrs[name] = value
	}

	return attrs, nil
}

// Decimal literals only; hex, octal and underscore forms stay strings, as do
// integers with a leading zero such as "0042".
var (
	integerPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
	floatPattern   = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)?$`)
)

// parseValue coerces a command line value. Quoted values stay strings.
func parseValue(raw string) any {
	value := strings.TrimSpace(raw)

	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		return value[1 : len(value)-1]
	}

	switch strings.ToLower(value) {
	case "null", "none":
		return nil
	case "true", "false":
		return cast.ToBool(value)
	}

	if integerPattern.MatchString(value) {
		if n, err := cast.ToInt64E(value); err == nil {
			return n
		}
	}

	if floatPattern.MatchString(value) {
		if f, err := cast.ToFloat64E(value); err == nil {
			return f
		}
	}

	return value
}

func parseID(arg string) (int64, error) {
	id, err := cast.ToInt64E(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", constants.ErrIDRequired, arg)
	}

	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, constants.ErrIDRequired
	}

	ids := make([]int64, 0, len(args))

	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}

			ids = append(ids, id)
		}
	}

	return ids, nil
}

// buildRelation applies the parsed flags to a relation.
func buildRelation(cli *fulfil.Client, model string, where []string, fields []string) (*fulfil.Relation, error) {
	if strings.TrimSpace(model) == "" {
		return nil, constants.ErrModelRequired
	}

	conditions, err := parseConditions(where)
	if err != nil {
		return nil, err
	}

	relation := cli.Model(model)

	for _, condition := range conditions {
		relation = relation.Where(condition...)
	}

	if len(fields) > 0 {
		relation = relation.Select(fields...)
	}

	return relation, nil
}

// plainValue converts cast attribute values into values every encoder
// understands.
func plainValue(value any) any {
	switch typed := value.(type) {
	case decimal.Decimal:
		return typed.String()
	case time.Time:
		return typed.Format(time.RFC3339Nano)
	case []byte:
		return base64.StdEncoding.EncodeToString(typed)
	case fulfil.Attributes:
		return plainValue(map[string]any(typed))
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = plainValue(item)
		}

		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = plainValue(item)
		}

		return out
	default:
		return value
	}
}

func plainRows(rows []*fulfil.Resource) []any {
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, plainValue(map[string]any(row.ToMap())))
	}

	return out
}

func encodeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	return encoder.Encode(value)
}

// renderResources writes rows as a table, JSON or YAML.
func renderResources(out io.Writer, format string, rows []*fulfil.Resource, fields []string) error {
	switch format {
	case constants.FormatJSON:
		return encodeJSON(out, plainRows(rows))
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)

		return encoder.Encode(plainRows(rows))
	case constants.FormatTable, "":
	default:
		return fmt.Errorf("%w: %q", constants.ErrInvalidOutput, format)
	}

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "No records found")

		return nil
	}

	columns := tableColumns(rows, fields)

	headers := make([]any, len(columns))
	for i, column := range columns {
		headers[i] = strings.ToUpper(column)
	}

	table := tablewriter.NewWriter(out)
	table.Header(headers...)

	for _, row := range rows {
		cells := make([]any, len(columns))

		for i, column := range columns {
			value, _ := row.Dig(column)
			cells[i] = cellString(value)
		}

		_ = table.Append(cells...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// tableColumns is id followed by the selected fields, or every top level
// attribute when nothing was selected.
func tableColumns(rows []*fulfil.Resource, fields []string) []string {
	columns := []string{"id"}
	seen := map[string]bool{"id": true}

	if len(fields) == 0 {
		for _, row := range rows {
			for key := range row.ToMap() {
				fields = append(fields, key)
			}
		}

		sort.Strings(fields)
	}

	for _, field := range fields {
		if seen[field] {
			continue
		}

		seen[field] = true
		columns = append(columns, field)
	}

	return columns
}

func cellString(value any) string {
	plain := plainValue(value)

	switch plain.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		data, err := json.Marshal(plain)
		if err != nil {
			return fmt.Sprint(plain)
		}

		return string(data)
	default:
		return cast.ToString(plain)
	}
}

// renderErrors writes the classified errors of a resource.
func renderErrors(out io.Writer, errs *fulfil.Errors) error {
	table := tablewriter.NewWriter(out)
	table.Header("Kind", "Code", "Message")

	errs.Each(func(entry fulfil.ErrorEntry) {
		_ = table.Append(string(entry.Kind), entry.Code, entry.Message)
	})

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// validateOutputPath rejects paths that climb out of the working directory.
func validateOutputPath(filePath string) error {
	cleanPath := filepath.Clean(filePath)

	if filepath.IsAbs(filePath) {
		if cleanPath != filePath {
			return constants.ErrDirectoryTraversalDetected
		}

		return nil
	}

	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return constants.ErrDirectoryTraversalDetected
	}

	return nil
}

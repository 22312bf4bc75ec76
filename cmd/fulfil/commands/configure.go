package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewConfigureCommand creates the configure command.
func NewConfigureCommand() *cobra.Command {
	var (
		merchant  string
		tokenType string
		baseURL   string
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store merchant credentials",
		Long: `Prompt for the merchant and access token and save them to the
configuration file. The token is read without echo when stdin is a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			if merchant == "" {
				merchant = config.MerchantID
			}

			if merchant == "" && baseURL == "" {
				_, _ = fmt.Fprint(out, "Merchant: ")

				line, err := reader.ReadString('\n')
				if err != nil && err != io.EOF {
					return fmt.Errorf("failed to read merchant: %w", err)
				}

				merchant = strings.TrimSpace(line)
			}

			if merchant == "" && baseURL == "" {
				return constants.ErrMerchantIDRequired
			}

			if tokenType != "" {
				switch fulfil.TokenType(strings.ToLower(tokenType)) {
				case fulfil.TokenTypePersonal, fulfil.TokenTypeOAuth:
				default:
					return fmt.Errorf("%w: %q", constants.ErrInvalidTokenType, tokenType)
				}
			}

			token, err := readToken(cmd, reader)
			if err != nil {
				return err
			}

			if token == "" {
				return constants.ErrNoAccessToken
			}

			config.MerchantID = merchant
			config.Token = token

			if tokenType != "" {
				config.TokenType = strings.ToLower(tokenType)
			}

			if baseURL != "" {
				config.BaseURL = baseURL
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(out, "Configuration saved")

			return nil
		},
	}

	cmd.Flags().StringVar(&merchant, "merchant-id", "", "merchant subdomain")
	cmd.Flags().StringVar(&tokenType, "type", "", "access token type (personal, oauth)")
	cmd.Flags().StringVar(&baseURL, "url", "", "override the merchant URL")

	return cmd
}

// readToken reads the access token, hiding input on a terminal.
func readToken(cmd *cobra.Command, reader *bufio.Reader) (string, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Access token: ")

	if in, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(in.Fd())) {
		bytes, err := term.ReadPassword(int(in.Fd()))

		_, _ = fmt.Fprintln(cmd.OutOrStdout())

		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		return strings.TrimSpace(string(bytes)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	return strings.TrimSpace(line), nil
}

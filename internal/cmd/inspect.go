package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otterscale/otterscale-gateway/internal/core"
)

type inspection struct {
	ExternalID  string `json:"externalId"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Registrable bool   `json:"registrable"`
}

// NewInspectCommand prints the identity claims the gateway would read
// from a bearer token. The token is taken from the first argument, or
// from stdin when the argument is "-" or absent.
func NewInspectCommand(extractor core.ClaimsExtractor) *cobra.Command {
	return &cobra.Command{
		Use:     "inspect-token [token|-]",
		Short:   "Decode a bearer token the way the gateway does, without verifying it",
		Example: "gateway inspect-token eyJhbGciOi...",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			claims, err := extractor.Extract(token)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(inspection{
				ExternalID:  claims.ExternalID,
				Email:       claims.Email,
				FirstName:   claims.FirstName,
				LastName:    claims.LastName,
				Registrable: claims.Registrable(),
			})
		},
	}
}

func readToken(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(io.LimitReader(stdin, 64*1024))
	if err != nil {
		return "", fmt.Errorf("read token from stdin: %w", err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", &core.ErrInvalidInput{Field: "token", Message: "no token given"}
	}
	return token, nil
}

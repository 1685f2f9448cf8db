package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jrsteele09/go-token-engine/token/keys"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage token signing keys",
	}
	cmd.AddCommand(newKeysGenerateCommand())
	return cmd
}

func newKeysGenerateCommand() *cobra.Command {
	var (
		keyID string
		bits  int
		out   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an RSA signing key and print its JWKS",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := keys.GenerateRSAKeyPair(keyID, bits)
			if err != nil {
				return err
			}
			privPEM, err := kp.ExportPrivateKeyPEM()
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), privPEM)
			} else {
				if err := os.WriteFile(out, []byte(privPEM), 0o600); err != nil {
					return errors.Wrapf(err, "write %s", out)
				}
				log.Info().Str("kid", keyID).Str("file", out).Msg("private key written")
			}

			jwks, err := keys.NewKeyPairSigner(kp).GetJWKS()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(jwks)
		},
	}
	cmd.Flags().StringVar(&keyID, "kid", "token-engine", "key id stamped into token headers")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA key size")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the private key PEM to this file instead of stdout")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/go-token-engine/internal/engine"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/spf13/cobra"
)

func newIssueCommand(a *app) *cobra.Command {
	var (
		grantType    string
		clientID     string
		clientSecret string
		scope        string
		params       map[string]string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Run one token request through the granter and print the token response",
		Example: `  granter issue --seed seed.yaml -g password -c web -s web_secret -p username=alice -p password=secret
  granter issue --redis-addr localhost:6379 -g captcha_password -c web -s web_secret \
    -p username=alice -p password=secret -p captcha_key=KEY -p captcha_code=CODE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine.New(cmd.Context(), a.config)
			if err != nil {
				return err
			}
			defer e.Close()

			gt := oauth2.GrantType(grantType)
			req := oauth2.NewTokenRequest(gt, clientID, oauth2.ParseScope(scope), params, oauth2.WithClientSecret(clientSecret))
			at, err := e.Granter.Grant(cmd.Context(), gt, req)
			if err != nil {
				return fmt.Errorf("%s: %w", oauth2.ErrorCode(err), err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(at.Response(time.Now()))
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&grantType, "grant-type", "g", string(oauth2.PasswordGrant), "grant type")
	flags.StringVarP(&clientID, "client-id", "c", "", "client id")
	flags.StringVarP(&clientSecret, "client-secret", "s", "", "client secret")
	flags.StringVar(&scope, "scope", "", "space separated scopes")
	flags.StringToStringVarP(&params, "param", "p", nil, "request parameter as name=value, repeatable")
	_ = cmd.MarkFlagRequired("client-id")
	return cmd
}

func newCaptchaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "captcha",
		Short: "Create a captcha challenge (needs a shared Redis to be usable by later commands)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine.New(cmd.Context(), a.config)
			if err != nil {
				return err
			}
			defer e.Close()

			ch, err := e.NewCaptcha(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "key:  %s\ncode: %s\n", ch.Key, ch.Code)
			return err
		},
	}
}

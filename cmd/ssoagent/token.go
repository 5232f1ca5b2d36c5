package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kakao/partnersso/adapters/tokenizer"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a client token for the SSO API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.HTTP.ClientSecret == "" {
			return errors.New("http.client_secret is required to issue tokens")
		}

		tk := tokenizer.NewJWTTokenizer([]byte(cfg.HTTP.ClientSecret), cfg.HTTP.ClientTokenTTL)
		token, err := tk.IssueClientToken(tokenSubject)
		if err != nil {
			return fmt.Errorf("issuing token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Client identifier placed in the token")
	_ = tokenCmd.MarkFlagRequired("subject")
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kakao/partnersso/core"
)

var accountsCmd = &cobra.Command{
	Use:     "accounts",
	Aliases: []string{"ls"},
	Short:   "List the Kakao Talk accounts shared on this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := buildAgent(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		log.Debug().Msg("Reading shared accounts...")
		snap, err := a.provider.FetchSnapshot(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading accounts: %w", err)
		}
		if snap.IsEmpty() {
			fmt.Println("No Kakao Talk accounts are shared for this access group.")
			return nil
		}

		active, _ := snap.Active()
		first, _ := snap.Main()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Account", "Nickname", "Display ID", "Last Login", "Terms", "Pick", "Status"})

		for _, r := range snap.Records {
			t.AppendRow(table.Row{
				r.AccountID,
				r.Profile.Nickname,
				r.Profile.DisplayID,
				formatLogin(r.LastLoginTime),
				r.IsUnifiedTermsAgreed,
				picks(r, active, first),
				status(a.provider.IsValid(r.AccountID)),
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Style().Format.Header = text.FormatDefault
		t.Render()
		return nil
	},
}

func formatLogin(at time.Time) string {
	if at.IsZero() {
		return "never"
	}
	return time.Since(at).Round(time.Second).String() + " ago"
}

func picks(r, active, first core.AccountRecord) string {
	switch {
	case r.AccountID == active.AccountID && r.AccountID == first.AccountID:
		return "active, main"
	case r.AccountID == active.AccountID:
		return "active"
	case r.AccountID == first.AccountID:
		return "main"
	}
	return ""
}

func status(valid bool) string {
	if valid {
		return text.FgGreen.Sprint("valid")
	}
	return text.FgRed.Sprint("invalidated")
}

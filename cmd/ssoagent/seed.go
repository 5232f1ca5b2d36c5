package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kakao/partnersso/service"
)

var (
	seedFile  string
	seedValue string
)

// seedCmd plays the part of the Kakao Talk agent on hosts without one
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a service seed and account records into the shared store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedValue == "" {
			return errors.New("--seed is required")
		}
		data, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("reading records: %w", err)
		}

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

		snap, err := a.codec.Decode(data)
		if err != nil {
			return fmt.Errorf("validating records: %w", err)
		}

		ctx := cmd.Context()
		if err := a.store.Put(ctx, service.SeedService, cfg.AccessGroup, service.Obfuscate(seedValue)); err != nil {
			return fmt.Errorf("writing seed: %w", err)
		}
		name := service.ServiceName(seedValue, cfg.DeploymentPhase())
		if err := a.store.Put(ctx, name, cfg.AccessGroup, data); err != nil {
			return fmt.Errorf("writing records: %w", err)
		}

		log.Info().
			Str("access_group", cfg.AccessGroup).
			Str("service", name).
			Int("accounts", snap.Len()).
			Msg("seeded shared store")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "JSON file with account records")
	seedCmd.Flags().StringVar(&seedValue, "seed", "", "Plain service seed")
	_ = seedCmd.MarkFlagRequired("file")
}

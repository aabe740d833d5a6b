package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	repo "github.com/joseph-ayodele/kyc-extractor/internal/repository"
)

var (
	aadhaarFront string
	aadhaarBack  string
	panImage     string
	saveCard     bool
)

var aadhaarCmd = &cobra.Command{
	Use:   "aadhaar",
	Short: "Read an Aadhaar card from its front and back images",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		front, err := os.ReadFile(aadhaarFront)
		if err != nil {
			return fmt.Errorf("read front: %w", err)
		}
		var back []byte
		if aadhaarBack != "" {
			if back, err = os.ReadFile(aadhaarBack); err != nil {
				return fmt.Errorf("read back: %w", err)
			}
		}
		details, err := newCardService().ExtractAadhaar(ctx, front, back)
		if err != nil {
			return err
		}
		if saveCard {
			db, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			outcome, err := repo.NewCandidateRepository(db, logger).UpsertAadhaar(ctx, *details)
			if err != nil {
				return err
			}
			logger.Info("candidate saved", "outcome", outcome)
		}
		return printJSON(cmd, details)
	},
}

var panCmd = &cobra.Command{
	Use:   "pan",
	Short: "Read a PAN card image",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		img, err := os.ReadFile(panImage)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		details, err := newCardService().ExtractPan(ctx, img)
		if err != nil {
			return err
		}
		if saveCard {
			db, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			outcome, err := repo.NewCandidateRepository(db, logger).UpsertPan(ctx, *details)
			if err != nil {
				return err
			}
			logger.Info("candidate saved", "outcome", outcome)
		}
		return printJSON(cmd, details)
	},
}

func init() {
	aadhaarCmd.Flags().StringVar(&aadhaarFront, "front", "", "front side image (required)")
	aadhaarCmd.Flags().StringVar(&aadhaarBack, "back", "", "back side image")
	_ = aadhaarCmd.MarkFlagRequired("front")
	panCmd.Flags().StringVar(&panImage, "image", "", "card image (required)")
	_ = panCmd.MarkFlagRequired("image")
	for _, c := range []*cobra.Command{aadhaarCmd, panCmd} {
		c.Flags().BoolVar(&saveCard, "save", false, "upsert the reviewed record into the candidates table")
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

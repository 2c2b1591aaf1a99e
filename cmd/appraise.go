package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/snappy-gold/appraisal-api/internal/appraise"
	"github.com/snappy-gold/appraisal-api/internal/model"
)

var (
	appraiseCorrections []string
	appraiseNotes       string
	appraiseJSON        bool
)

var appraiseCmd = &cobra.Command{
	Use:   "appraise <photo> [photo...]",
	Short: "Appraise item photos from the command line",
	Long:  "Runs the same analyze / correct / re-estimate flow the API exposes, against local image files. Corrections are applied after the first estimate and trigger exactly one re-estimation.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spots := initSpotCache()
		service, err := initAppraisalService(spots)
		if err != nil {
			return err
		}

		images := make([]appraise.Image, 0, len(args))
		for _, path := range args {
			img, err := loadImage(path)
			if err != nil {
				return err
			}
			images = append(images, img)
		}

		sess, err := appraise.NewSession(service, images)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := sess.Estimate(ctx)
		if err != nil {
			return err
		}

		if len(appraiseCorrections) > 0 || appraiseNotes != "" {
			for _, c := range appraiseCorrections {
				label, value, ok := strings.Cut(c, "=")
				if !ok {
					return eris.Errorf("invalid correction %q, expected Label=Value", c)
				}
				if err := sess.SetCorrection(strings.TrimSpace(label), strings.TrimSpace(value)); err != nil {
					return err
				}
			}
			if appraiseNotes != "" {
				if err := sess.SetExtraNotes(appraiseNotes); err != nil {
					return err
				}
			}
			a, err = sess.Reestimate(ctx)
			if err != nil {
				return err
			}
		}

		if appraiseJSON {
			return json.NewEncoder(os.Stdout).Encode(a)
		}
		printAppraisal(a)
		return nil
	},
}

func loadImage(path string) (appraise.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return appraise.Image{}, eris.Wrapf(err, "read image %s", path)
	}

	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = "image/jpeg"
	}

	return appraise.Image{
		MediaType: mediaType,
		Data:      base64.StdEncoding.EncodeToString(raw),
	}, nil
}

func printAppraisal(a *model.Appraisal) {
	fmt.Printf("%s (%s, confidence: %s)\n", a.Title, a.ItemType, a.Confidence)
	fmt.Println(a.Description)
	for _, d := range a.Details {
		fmt.Printf("  %s: %s\n", d.Label, d.Value)
	}
	if a.Recognized() {
		fmt.Printf("Offer: %s\n", a.OfferRange())
	} else {
		fmt.Println("Offer: not something we buy")
	}
	if a.OfferNotes != "" {
		fmt.Println(a.OfferNotes)
	}
}

func init() {
	appraiseCmd.Flags().StringArrayVar(&appraiseCorrections, "correct", nil, `correct a detail field, e.g. --correct "Metal Type=18K Gold" (repeatable)`)
	appraiseCmd.Flags().StringVar(&appraiseNotes, "notes", "", "extra free-text notes sent with the corrections")
	appraiseCmd.Flags().BoolVar(&appraiseJSON, "json", false, "print the raw appraisal JSON")
	rootCmd.AddCommand(appraiseCmd)
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/romariotrain/eyescan/internal/scan/domain"
	"github.com/romariotrain/eyescan/internal/scan/intake"
	"github.com/romariotrain/eyescan/internal/scan/models"
	"github.com/romariotrain/eyescan/internal/scan/workflow"
)

const defaultHistory = "Patient history goes here"

var errScanFailed = errors.New("scan failed")

func newScanCmd(opts *rootOptions) *cobra.Command {
	var history string

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Classify one fundus image and print the recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args[0], history)
		},
	}
	cmd.Flags().StringVar(&history, "history", defaultHistory, "patient history sent with the diagnosis")
	return cmd
}

func runScan(cmd *cobra.Command, opts *rootOptions, path, history string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	classifier, recommender, err := opts.clients()
	if err != nil {
		return err
	}

	w, err := workflow.New(uuid.New(), workflow.Config{
		Classifier:  classifier,
		Recommender: recommender,
		Timeout:     opts.cfg.RequestTimeout,
		Language:    opts.cfg.Language,
		Logger:      opts.logger,
	})
	if err != nil {
		return err
	}

	cand, err := intake.CandidateFromFile(path)
	if err != nil {
		return err
	}
	if err := w.Select(cand); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(out, verr.Error())
			return errScanFailed
		}
		return err
	}

	fmt.Fprintf(out, "Analyzing %s ...\n", cand.FileName)
	st, err := w.Submit(ctx)
	if err != nil {
		return err
	}
	if st.Phase != domain.Succeeded {
		fmt.Fprintln(out, st.Reason)
		return errScanFailed
	}
	printDiagnosis(out, *st.Result)

	if err := w.SetHistory(history, ""); err != nil {
		return err
	}
	rec := w.Recommendation(ctx)
	if rec.Phase != domain.Ready {
		fmt.Fprintln(out, rec.Reason)
		return errScanFailed
	}
	printRecommendation(out, *rec.Result)
	return nil
}

func printDiagnosis(out io.Writer, res models.ClassificationResult) {
	label := models.LookupLabel(res.Label)
	fmt.Fprintf(out, "Diagnosis:  %s (%s)\n", label.DisplayName, label.Code)
	fmt.Fprintf(out, "Confidence: %s\n", res.Percent())
}

func printRecommendation(out io.Writer, rec models.RecommendationResult) {
	printBlock(out, "Possible causes", rec.Causes)
	printBlock(out, "Suggested treatments", rec.Treatments)
}

func printBlock(out io.Writer, title string, lines []string) {
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			fmt.Fprintln(out)
			continue
		}
		fmt.Fprintf(out, "  %s\n", l)
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/littleweb/crawler/internal/crawl"
	"github.com/littleweb/crawler/internal/score"
)

var testAllLinks bool

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test URL",
		Short: "Crawl and score a single URL without touching the queue",
		Args:  cobra.ExactArgs(1),
		RunE:  runTestCommand,
	}
	cmd.Flags().BoolVar(&testAllLinks, "all-links", false, "extract up to the hub link cap")
	return cmd
}

func runTestCommand(cmd *cobra.Command, args []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	normalized, err := crawl.NormalizeURL(args[0])
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", args[0], err)
	}

	result := a.SiteCrawler.Crawl(cmd.Context(), normalized, testAllLinks)

	out := struct {
		Result     crawl.Result        `json:"result"`
		Assessment *score.QualityScore `json:"assessment,omitempty"`
	}{Result: result}

	if result.Success && result.Content != nil {
		cls := a.Classifier.Classify(normalized)
		assessment := score.Assess(*result.Content, normalized, false, &cls, time.Now())
		out.Assessment = &assessment
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}

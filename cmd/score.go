package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lukman83/compintel/internal/pipeline"
	"github.com/lukman83/compintel/internal/platform"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [file.json]",
	Short: "Score raw extracted records from a JSON array file",
	Long: "Reads a JSON array of raw product or promotion records, as the extractor " +
		"returns them, and reports each record's quality score, issues and validity.",
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("kind", "product", "Record kind: product, promotion")
	scoreCmd.Flags().String("format", "table", "Output format: table, json")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	kindName, _ := cmd.Flags().GetString("kind")
	kind, err := pipeline.ParseKind(kindName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	records, err := decodeRecords(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	now := time.Now()
	scores := make([]scoredRecord, len(records))
	for i, raw := range records {
		rep := pipeline.ScoreRecord(raw, kind, now)
		scores[i] = scoredRecord{
			Index:  i + 1,
			Label:  recordLabel(raw),
			Score:  rep.Score,
			Valid:  rep.Valid,
			Issues: rep.Issues,
			Error:  rep.Error,
		}
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(scores)
	default:
		printScores(cmd.OutOrStdout(), scores)
	}
	return nil
}

func decodeRecords(data []byte) ([]platform.Raw, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []platform.Raw
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("expected a JSON array of objects: %w", err)
	}
	return records, nil
}

func recordLabel(raw platform.Raw) string {
	for _, key := range []string{"product_name", "promo_title"} {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return "(unnamed)"
}

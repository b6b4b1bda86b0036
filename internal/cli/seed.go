package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	seedCount      int
	seedBatchSize  int
	seedInterval   time.Duration
	seedErrorRatio float64
	seedScenario   string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate fake log batches and POST them to the ingest endpoint",
	Long: `seed generates structured log entries with fake data and sends them
to the logsink ingest endpoint in batches. Entry levels are picked
randomly; --error-ratio controls how many survive the server-side level
filter. A yaml scenario file can pin down exact batches instead.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "number of entries to generate")
	seedCmd.Flags().IntVar(&seedBatchSize, "batch-size", 10, "entries per request")
	seedCmd.Flags().DurationVar(&seedInterval, "interval", 100*time.Millisecond, "pause between batches")
	seedCmd.Flags().Float64Var(&seedErrorRatio, "error-ratio", 0.3, "fraction of entries at error level")
	seedCmd.Flags().StringVar(&seedScenario, "scenario", "", "yaml scenario file describing batches")
	rootCmd.AddCommand(seedCmd)
}

// Scenario describes a deterministic seeding run.
type Scenario struct {
	Batches []ScenarioBatch `yaml:"batches"`
}

// ScenarioBatch is one request's worth of entries.
type ScenarioBatch struct {
	Count  int                    `yaml:"count"`
	Level  string                 `yaml:"level"`
	Fields map[string]interface{} `yaml:"fields"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	gofakeit.Seed(time.Now().UnixNano())

	client := &http.Client{Timeout: 10 * time.Second}

	if seedScenario != "" {
		return seedFromScenario(cmd, client)
	}

	levels := []string{"debug", "info", "warn"}
	sent := 0
	batch := make([]map[string]interface{}, 0, seedBatchSize)

	for i := 0; i < seedCount; i++ {
		level := levels[rand.Intn(len(levels))]
		if rand.Float64() < seedErrorRatio {
			level = "error"
		}
		batch = append(batch, generateEntry(level))

		if len(batch) >= seedBatchSize || i == seedCount-1 {
			if err := sendBatch(client, batch); err != nil {
				return fmt.Errorf("failed to send batch: %w", err)
			}
			sent += len(batch)
			batch = batch[:0]

			if seedInterval > 0 && i < seedCount-1 {
				time.Sleep(seedInterval)
			}
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent %d entries\n", sent)
	return nil
}

func seedFromScenario(cmd *cobra.Command, client *http.Client) error {
	data, err := os.ReadFile(seedScenario)
	if err != nil {
		return fmt.Errorf("failed to read scenario: %w", err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return fmt.Errorf("failed to parse scenario: %w", err)
	}

	sent := 0
	for _, sb := range scenario.Batches {
		batch := make([]map[string]interface{}, 0, sb.Count)
		for i := 0; i < sb.Count; i++ {
			entry := generateEntry(sb.Level)
			for k, v := range sb.Fields {
				entry[k] = v
			}
			batch = append(batch, entry)
		}
		if err := sendBatch(client, batch); err != nil {
			return fmt.Errorf("failed to send batch: %w", err)
		}
		sent += len(batch)

		if seedInterval > 0 {
			time.Sleep(seedInterval)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent %d entries from scenario %s\n", sent, seedScenario)
	return nil
}

func generateEntry(level string) map[string]interface{} {
	return map[string]interface{}{
		"level":   level,
		"message": gofakeit.HackerPhrase(),
		"service": gofakeit.AppName(),
		"host":    gofakeit.DomainName(),
		"user":    gofakeit.Username(),
		"ip":      gofakeit.IPv4Address(),
	}
}

func sendBatch(client *http.Client, batch []map[string]interface{}) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return err
	}

	resp, err := client.Post(serverURL+"/ingest", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"

	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/queue"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Generate and replay test result events",
}

var eventsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a sample SQS event carrying one test result",
	Long: `Write a sample SQS event as the queue delivers it: an SNS notification
wrapping one test result. The service defaults to TEST_SERVICE.`,
	RunE: generateEvent,
}

var eventsRunCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Process an SQS event file through the report pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvent,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsGenerateCmd)
	eventsCmd.AddCommand(eventsRunCmd)

	eventsGenerateCmd.Flags().String("service", "", "Service name (defaults to TEST_SERVICE)")
	eventsGenerateCmd.Flags().Bool("failed", false, "Mark the test run as failed")
	eventsGenerateCmd.Flags().Float64("duration", 1.0, "Test execution time in seconds")
	eventsGenerateCmd.Flags().String("timestamp", "", "Run time in RFC3339 (defaults to now)")
	eventsGenerateCmd.Flags().StringP("output", "o", "event.json", "Output file, - for stdout")
}

func generateEvent(cmd *cobra.Command, _ []string) error {
	service, _ := cmd.Flags().GetString("service")
	failed, _ := cmd.Flags().GetBool("failed")
	duration, _ := cmd.Flags().GetFloat64("duration")
	timestampStr, _ := cmd.Flags().GetString("timestamp")
	output, _ := cmd.Flags().GetString("output")

	if strings.TrimSpace(service) == "" {
		service = os.Getenv("TEST_SERVICE")
	}
	if strings.TrimSpace(service) == "" {
		service = "myservice"
	}

	now := time.Now()
	if timestampStr != "" {
		parsed, err := time.Parse(time.RFC3339, timestampStr)
		if err != nil {
			return fmt.Errorf("invalid timestamp format: %s (expected RFC3339)", timestampStr)
		}
		now = parsed
	}

	event, err := queue.NewSampleEvent(service, !failed, duration, now)
	if err != nil {
		return err
	}

	body, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if output == "-" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return err
	}
	if err := os.WriteFile(output, append(body, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample event for %s to %s\n", service, output)
	return nil
}

func runEvent(cmd *cobra.Command, args []string) error {
	body, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var event events.SQSEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse SQS event: %w", err)
	}
	if len(event.Records) == 0 {
		return fmt.Errorf("%s contains no records", args[0])
	}

	application, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer application.Close()

	response, err := application.Queue.Handle(cmd.Context(), event)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if len(response.BatchItemFailures) > 0 {
		return fmt.Errorf("%d of %d records failed", len(response.BatchItemFailures), len(event.Records))
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/outage-alert-service/internal/adapter/source"
	"github.com/couchcryptid/outage-alert-service/internal/dedup"
	"github.com/couchcryptid/outage-alert-service/internal/domain"
	"github.com/couchcryptid/outage-alert-service/internal/observability"
	"github.com/couchcryptid/outage-alert-service/internal/parser"
)

func newParseCmd() *cobra.Command {
	var (
		encoding string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a saved outage page and print the outages as JSON",
		Long:  "Parses FILE (or stdin when FILE is -) without touching the store or sending anything.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decode, err := source.Decoder(encoding)
			if err != nil {
				return err
			}
			body, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			doc, err := decode(body)
			if err != nil {
				return err
			}

			logger := observability.NewLoggerTo(cmd.ErrOrStderr(), logLevel, "text")
			outages, err := parseDocument(doc, logger)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(outages, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "windows-1251", "source encoding: windows-1251 or utf-8")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level for skipped rows")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

// parseDocument returns the page's outages with content hashes assigned.
func parseDocument(doc string, logger *slog.Logger) ([]domain.Outage, error) {
	outages, err := parser.New(logger).Parse(doc)
	if err != nil {
		return nil, err
	}
	for i := range outages {
		outages[i] = dedup.WithHash(outages[i])
	}
	return outages, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docpersona/internal/app"
	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/dgallion1/docpersona/internal/service"
	"github.com/dgallion1/docpersona/internal/store"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract the title and heading outline of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var extractJSON bool

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print the outline as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	svc := offlineService()
	o, err := extractFile(cmd, svc, args[0])
	if err != nil {
		return err
	}
	if extractJSON {
		return printJSON(cmd.OutOrStdout(), o)
	}
	printOutline(cmd.OutOrStdout(), o)
	return nil
}

// offlineService runs extraction and ranking in-process against a memory
// store. Only warnings reach stderr.
func offlineService() *service.Service {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return app.NewService(cfg, store.NewMemory(), nil, log)
}

func extractFile(cmd *cobra.Command, svc *service.Service, path string) (*outline.Outline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	o, err := svc.Extract(cmd.Context(), f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return o, nil
}

func printOutline(w io.Writer, o *outline.Outline) {
	fmt.Fprintln(w, o.Title)
	for _, h := range o.Headings {
		indent := strings.Repeat("  ", levelDepth(h.Level))
		fmt.Fprintf(w, "%s%s %s (p. %d)\n", indent, h.Level, h.Text, h.Page)
	}
}

func levelDepth(l outline.Level) int {
	switch l {
	case outline.H2:
		return 1
	case outline.H3:
		return 2
	default:
		return 0
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"patchio/internal/ephys"
	"patchio/internal/index"
)

var (
	scanWorkers   int
	listClampMode string
	listProtocol  string
)

// scanCmd walks a directory and catalogs every recording in it
var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Catalog every recording under a directory",
	Long: `Walks the directory for .abf, .nwb, and .lindi.* files, loads each
one, and records its summary in the catalog database. Unreadable files are
skipped with a warning; rescanning refreshes existing entries in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// listCmd queries the catalog
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged recordings",
	RunE:  runList,
}

func init() {
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 4, "concurrent file probes")
	listCmd.Flags().StringVar(&listClampMode, "clamp-mode", "", "filter by clamp mode (current_clamp / voltage_clamp)")
	listCmd.Flags().StringVar(&listProtocol, "protocol", "", "filter by protocol substring")
}

func openCatalog() (*index.Store, error) {
	if err := os.MkdirAll(filepath.Dir(catalogPath), 0o755); err != nil {
		return nil, err
	}
	return index.Open(catalogPath)
}

func runScan(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	// Each worker needs its own resolver: the result cache is per-instance
	// and unsynchronized.
	scanner := &index.Scanner{
		Store: store,
		Probe: func(ctx context.Context, path string) (*ephys.Recording, error) {
			res, err := newResolver().Resolve(path)
			if err != nil {
				return nil, err
			}
			return res.Recording, nil
		},
		Logger:  logger,
		Workers: scanWorkers,
	}

	n, err := scanner.Scan(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("cataloged %d recordings\n", n)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), index.Query{
		ClampMode: listClampMode,
		Protocol:  listProtocol,
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printWarn("catalog is empty (run \"patchio scan\" first)")
		return nil
	}

	widths := []int{40, 6, 7, 14, 20}
	printRow(widths, "path", "fmt", "sweeps", "mode", "protocol")
	for _, e := range entries {
		printRow(widths, e.Path, e.Format, fmt.Sprintf("%d", e.SweepCount), e.ClampMode, e.Protocol)
	}
	return nil
}

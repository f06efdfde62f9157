package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"patchio/internal/protocols"
)

var watchProtocols bool

// protocolsCmd lists the loaded protocol descriptors
var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List the loaded protocol descriptors",
	Long: `Lists every descriptor the layered directories produced, in priority
order. With --watch the registry stays loaded and reloads whenever a
descriptor file changes, printing the new count after each reload.`,
	RunE: runProtocols,
}

// matchCmd resolves a raw protocol name against the registry
var matchCmd = &cobra.Command{
	Use:   "match [raw-name]",
	Short: "Match a raw protocol name against the descriptors",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

// datasetsCmd lists the known dataset catalog
var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the known reference datasets",
	RunE:  runDatasets,
}

func init() {
	protocolsCmd.Flags().BoolVar(&watchProtocols, "watch", false, "keep running and reload on descriptor changes")
}

func loadRegistry() (*protocols.Registry, error) {
	return protocols.LoadRegistry(protocols.DiscoverDirs(protocolDir), logger)
}

func runProtocols(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	widths := []int{20, 6, 28}
	printRow(widths, "name", "mode", "alternates")
	for _, d := range reg.Descriptors() {
		printRow(widths, d.Name, d.Mode().Short(), strings.Join(d.AlternateNames, ", "))
	}

	if !watchProtocols {
		return nil
	}
	fmt.Println(dimStyle.Render("watching for descriptor changes, Ctrl-C to stop"))
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := reg.Watch(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	d := reg.Match(args[0])
	if d == nil {
		printWarn("no descriptor matches " + args[0])
		return nil
	}
	printKV("Canonical", d.Name)
	if d.DisplayName != "" {
		printKV("Display name", d.DisplayName)
	}
	printKV("Clamp mode", d.Mode().String())
	if len(d.AlternateNames) > 0 {
		printKV("Alternates", strings.Join(d.AlternateNames, ", "))
	}
	if d.Stimulus.Shape != "" {
		printKV("Stimulus", fmt.Sprintf("%s, %gs at %gs", d.Stimulus.Shape, d.Stimulus.DurationS, d.Stimulus.StartS))
	}
	printKV("Source", d.Source)
	return nil
}

func runDatasets(cmd *cobra.Command, args []string) error {
	catalog, err := protocols.LoadKnownDatasets(protocols.DiscoverDirs(protocolDir))
	if err != nil {
		return err
	}
	if len(catalog) == 0 {
		printWarn("no dataset catalog found")
		return nil
	}
	for _, d := range catalog {
		printTitle(d.Name)
		printKV("URL", d.URL)
		if d.Protocol != "" {
			printKV("Protocol", d.Protocol)
		}
		if d.Description != "" {
			fmt.Println(dimStyle.Render(d.Description))
		}
	}
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"patchio/internal/ephys"
	"patchio/internal/protocols"
	"patchio/internal/resolver"
)

func electrodePresent(rec *ephys.Recording) bool {
	e := rec.Electrode
	return e.Description != "" || e.Device != "" || e.Location != "" || e.Resistance != ""
}

// infoCmd loads one recording and prints its normalized summary
var infoCmd = &cobra.Command{
	Use:   "info [path-or-url]",
	Short: "Load a recording and print its summary",
	Long: `Loads a recording through the format dispatcher and prints the
normalized metadata: sweep count, sample rate, dominant clamp mode and
protocol, and electrode details when the container carries them.

Accepts .abf and .nwb files, .lindi.json/.lindi.tar snapshots, http(s) URLs,
and known dataset names from the catalog (see "patchio datasets").`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func newResolver() *resolver.Resolver {
	return resolver.New(resolver.Options{
		CacheDir: cacheDir,
		Logger:   logger,
	})
}

// resolveTarget expands a known-dataset name to its URL; anything else passes
// through unchanged.
func resolveTarget(arg string) string {
	catalog, err := protocols.LoadKnownDatasets(protocols.DiscoverDirs(protocolDir))
	if err != nil {
		return arg
	}
	if d, ok := protocols.FindDataset(catalog, arg); ok {
		return d.URL
	}
	return arg
}

func runInfo(cmd *cobra.Command, args []string) error {
	target := resolveTarget(args[0])
	res, err := newResolver().Resolve(target)
	if err != nil {
		return err
	}
	rec := res.Recording

	printTitle("Recording")
	printKV("Source", target)
	printKV("Sweeps", rec.SweepCount())
	printKV("Sample rate (Hz)", rec.SampleRate)
	printKV("Clamp mode", rec.ClampMode.String())
	if rec.Protocol != "" {
		printKV("Protocol", rec.Protocol)
	}
	if len(rec.Protocols) > 1 {
		printKV("All protocols", strings.Join(rec.Protocols, ", "))
	}
	if rec.SessionDescription != "" {
		printKV("Session", rec.SessionDescription)
	}
	if electrodePresent(rec) {
		printTitle("Electrode")
		printKV("Description", rec.Electrode.Description)
		if rec.Electrode.Device != "" {
			printKV("Device", rec.Electrode.Device)
		}
		if rec.Electrode.Location != "" {
			printKV("Location", rec.Electrode.Location)
		}
		if rec.Electrode.Resistance != "" {
			printKV("Resistance", rec.Electrode.Resistance)
		}
	}

	if rec.Protocol != "" {
		reg, err := protocols.LoadRegistry(protocols.DiscoverDirs(protocolDir), logger)
		if err != nil {
			return err
		}
		if d := reg.Match(rec.Protocol); d != nil {
			printTitle("Matched protocol")
			printKV("Canonical", d.Name)
			if d.DisplayName != "" {
				printKV("Display name", d.DisplayName)
			}
			if d.Description != "" {
				fmt.Println(dimStyle.Render(strings.TrimSpace(d.Description)))
			}
		} else {
			printWarn("protocol name matched no descriptor: " + rec.Protocol)
		}
	}
	return nil
}

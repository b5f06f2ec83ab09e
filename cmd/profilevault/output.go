// ABOUTME: Text and JSON rendering of profiles for the CLI
// ABOUTME: Colorized tables on terminals, indented JSON with --json

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/2389/profilevault/internal/settings"
	"github.com/2389/profilevault/internal/store"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printProfileTable(w io.Writer, profiles []*store.Profile) {
	if len(profiles) == 0 {
		fmt.Fprintln(w, color.HiBlackString("no profiles"))
		return
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "%-36s  %-7s  %-24s  %s\n", "ID", "VARIANT", "NAME", "UPDATED")
	for _, p := range profiles {
		fmt.Fprintf(w, "%s  %s  %-24s  %s\n",
			color.CyanString("%-36s", p.ID),
			color.YellowString("%-7s", p.Variant.Tag()),
			p.Name,
			color.HiBlackString(formatUpdated(p)),
		)
	}
}

func printProfile(w io.Writer, p *store.Profile) {
	label := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", label("ID:        "), color.CyanString(p.ID))
	fmt.Fprintf(w, "%s %s\n", label("Name:      "), p.Name)
	fmt.Fprintf(w, "%s %s\n", label("Variant:   "), color.YellowString(p.Variant.Tag()))
	fmt.Fprintf(w, "%s %t\n", label("Member:    "), p.Membership)
	if p.Mode != "" {
		fmt.Fprintf(w, "%s %s\n", label("Mode:      "), p.Mode)
	}
	if p.Playstyle != "" {
		fmt.Fprintf(w, "%s %s\n", label("Playstyle: "), p.Playstyle)
	}
	fmt.Fprintf(w, "%s %t\n", label("Profiler:  "), p.AutoProfiler)
	fmt.Fprintf(w, "%s %s\n", label("Updated:   "), formatUpdated(p))
	if p.Notes != "" {
		fmt.Fprintf(w, "%s %s\n", label("Notes:     "), p.Notes)
	}

	flat := settings.Flatten(p.Settings, ".")
	if len(flat) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, label("Settings:"))
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintf(w, "  %s %v\n", color.HiBlackString(path+" ="), flat[path])
	}
}

func formatUpdated(p *store.Profile) string {
	if p.LastUpdated == 0 {
		return "never"
	}
	return p.UpdatedAt().Local().Format(time.DateTime)
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString(format, args...))
}

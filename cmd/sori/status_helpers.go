package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"sori/internal/api"
	"sori/internal/ledger"
	"sori/internal/store"
)

func storeSection(st *store.Status, colorize bool) []string {
	lines := renderSectionHeader("Audio store", colorize)
	if st == nil {
		return append(lines, renderStatusLine("Store", statusInfo, "Unknown", colorize))
	}

	if st.ManifestPresent {
		lines = append(lines, renderStatusLine("Manifest", statusOK, fmt.Sprintf("%d entries", st.Entries), colorize))
	} else {
		lines = append(lines, renderStatusLine("Manifest", statusWarn, "Not written yet; run `sori sync`", colorize))
	}
	lines = append(lines, renderStatusLine("Artifacts", statusOK,
		fmt.Sprintf("%d files (%s)", st.Artifacts, humanize.IBytes(uint64(st.TotalBytes))), colorize))

	missingKind := statusOK
	if st.Missing > 0 {
		missingKind = statusError
	}
	lines = append(lines, renderStatusLine("Missing audio", missingKind, strconv.Itoa(st.Missing), colorize))

	orphanKind := statusOK
	if st.Orphans > 0 {
		orphanKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Orphans", orphanKind, strconv.Itoa(st.Orphans), colorize))
	return lines
}

func environmentSection(res api.StatusResult, colorize bool) []string {
	lines := renderSectionHeader("Environment", colorize)
	for _, check := range res.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	for _, dep := range res.Deps {
		kind := statusOK
		detail := fmt.Sprintf("Ready (command: %s)", dep.Command)
		if !dep.Available {
			detail = dep.Detail
			kind = statusError
			if dep.Optional {
				kind = statusWarn
			}
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if res.Tool.Version != "" {
		lines = append(lines, renderStatusLine("Tool version", statusInfo, res.Tool.Version, colorize))
	}
	return lines
}

func lastRunSection(run *ledger.Run, colorize bool) []string {
	lines := renderSectionHeader("Last run", colorize)
	kind := statusOK
	detail := fmt.Sprintf("%s %s (%s)", run.Kind,
		run.StartedAt.Local().Format("2006-01-02 15:04"), humanize.Time(run.StartedAt))
	if run.Error != "" {
		kind = statusError
		detail += ", failed: " + run.Error
	}
	lines = append(lines, renderStatusLine("Run", kind, detail, colorize))
	lines = append(lines, renderStatusLine("Counts", statusInfo,
		fmt.Sprintf("planned %d, copied %d, generated %d, failed %d, removed %d",
			run.Planned, run.Copied, run.Generated, run.Failed, run.Removed), colorize))
	return lines
}

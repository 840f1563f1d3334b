// Command jmp is the command-line front-end: it parses flags, slurps
// input files, and hands the materialized document tree to
// engine.PlayList.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"jsonmidiplayer/document"
	"jsonmidiplayer/engine"
	"jsonmidiplayer/logging"
	"jsonmidiplayer/registry"
)

const version = "1.0.0"

var (
	verboseFlag = flag.Bool("v", false, "enable verbose logging")
	versionFlag = flag.Bool("V", false, "print version and exit")
)

func init() {
	flag.BoolVar(verboseFlag, "verbose", false, "enable verbose logging")
	flag.BoolVar(versionFlag, "version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: jmp [-v|--verbose] [-V|--version] file.json [file.json ...]\n")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println("jmp version " + version)
		return
	}

	files, err := loadFiles(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "jmp:", err)
		os.Exit(1)
	}

	log, err := logging.New(*verboseFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "jmp: failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	reg, err := registry.New(log)
	if err != nil {
		if errors.Is(err, registry.ErrNoEndpointsAvailable) {
			fmt.Fprintln(os.Stderr, "jmp: no MIDI output endpoints available")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "jmp: endpoint enumeration failed:", err)
		os.Exit(1)
	}

	stats, err := engine.PlayList(reg, files, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "jmp:", err)
		os.Exit(1)
	}

	fmt.Println(renderSummary(stats))
	for _, line := range renderFailedEndpoints(reg) {
		fmt.Println(line)
	}
}

func loadFiles(paths []string) ([]document.File, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files given")
	}

	var files []document.File
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var batch []document.File
		if err := json.Unmarshal(raw, &batch); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		files = append(files, batch...)
	}
	return files, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
)

// renderFailedEndpoints reports, one line per endpoint, every endpoint
// whose open attempt failed — the pins bound to it were silently
// excluded rather than played. Endpoints that no pin referenced were
// never opened and are not listed.
func renderFailedEndpoints(reg *registry.Registry) []string {
	var lines []string
	for _, ep := range reg.Endpoints() {
		if ep.Failed() {
			lines = append(lines, warnStyle.Render(fmt.Sprintf("endpoint %q failed to open, its pins were excluded", ep.Name)))
		}
	}
	return lines
}

func renderSummary(s engine.Stats) string {
	row := func(label string, value string) string {
		return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("Playback summary"),
		row("Pre-processing", fmt.Sprintf("%.2f ms", s.PreProcessingMS)),
		row("Processed", fmt.Sprintf("%d", s.TotalProcessed)),
		row("Redundant", fmt.Sprintf("%d", s.TotalRedundant)),
		row("Excluded", fmt.Sprintf("%d", s.TotalExcluded)),
		row("Drag", fmt.Sprintf("%.3f ms", s.TotalDragMS)),
		row("Delay total/min/max/mean/stddev", fmt.Sprintf("%.3f / %.3f / %.3f / %.3f / %.3f ms",
			s.DelayTotalMS, s.DelayMinMS, s.DelayMaxMS, s.DelayMeanMS, s.DelayStdDevMS)),
	)
}

// volumetool is a CLI utility for inspecting shadow volume meshes and TIN
// geometry without opening a window.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/vmora/cesium/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "stats":
		cmdStats(args)
	case "dump":
		cmdDump(args)
	case "tin":
		cmdTIN(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`volumetool - shadow volume mesh utility

Usage:
  volumetool <command> [options]

Commands:
  stats <config.yaml>          Show vertex, index and range counts per polygon
  dump <config.yaml> [output]  Write mesh layouts as YAML (stdout by default)
  tin <tin.yaml>               Pack, unpack and expand a TIN file

Examples:
  volumetool stats polyview.yaml
  volumetool dump polyview.yaml layout.yaml
  volumetool tin terrain.yaml`)
}

func loadConfig(args []string, usage string) *config.Config {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: volumetool "+usage)
		os.Exit(1)
	}
	cfg, err := config.LoadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func cmdStats(args []string) {
	cfg := loadConfig(args, "stats <config.yaml>")

	layouts, err := buildLayouts(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLYGON\tVERTICES\tINDICES\tWIDTH\tUP DELTA\tTOP\tBOTTOM\tWALL\tINTERIOR")
	for _, l := range layouts {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\t%d\t%d\t%d\t%d\n",
			l.Name, l.Vertices, l.Indices, l.IndexWidth, l.UpDelta,
			l.TopCap.Count, l.BottomCap.Count, l.Wall.Count, l.InteriorWalls.Count)
	}
	w.Flush()

	for _, l := range layouts {
		if l.CapFallback {
			fmt.Printf("warning: %s has a degenerate boundary, cap is a placeholder\n", l.Name)
		}
	}
}

func cmdDump(args []string) {
	cfg := loadConfig(args, "dump <config.yaml> [output]")

	layouts, err := buildLayouts(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := yaml.Marshal(layouts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(args) < 2 {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(args[1], data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d layouts to %s\n", len(layouts), args[1])
}

func cmdTIN(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: volumetool tin <tin.yaml>")
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	s, err := inspectTIN(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("TIN: %s\n", args[0])
	fmt.Printf("  Triangles:     %d\n", s.Triangles)
	fmt.Printf("  Vertices:      %d\n", s.Vertices)
	fmt.Printf("  Packed length: %d\n", s.PackedLength)
	fmt.Printf("  Indices:       %d\n", s.Indices)
	fmt.Printf("  Normals:       %v\n", s.HasNormals)
	fmt.Printf("  Bounds center: (%.1f, %.1f, %.1f)\n", s.Center[0], s.Center[1], s.Center[2])
	fmt.Printf("  Bounds radius: %.1f m\n", s.Radius)
}

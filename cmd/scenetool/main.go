// scenetool is a CLI utility for inspecting 3D scene files.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/sceneport/internal/config"
	"github.com/Faultbox/sceneport/internal/logger"
	"github.com/Faultbox/sceneport/pkg/diag"
	"github.com/Faultbox/sceneport/pkg/importer"
	"github.com/Faultbox/sceneport/pkg/scene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := config.ParseFlags(os.Args[2:])

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch command {
	case "info":
		cmdInfo(cfg, args)
	case "validate", "check":
		cmdValidate(cfg, args)
	case "textures", "tex":
		cmdTextures(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - 3D scene file utility

Usage:
  scenetool <command> [options]

Commands:
  info <file>        Show scene structure (nodes, meshes, materials)
  validate <file>    Import the file and report every warning
  textures <file>    List texture references and embedded textures

Options (after the command):
  -config <path>        Path to config file
  -debug                Enable debug logging
  -max-file-size <MB>   Maximum input file size (0 = unlimited)
  -log-file <path>      Write logs to this file
  -strict               Exit non-zero when an import produced warnings

Supported formats: .ase, .ask, .gltf, .glb

Examples:
  scenetool info model.ase
  scenetool validate -strict scene.gltf
  scenetool textures model.ase`)
}

func importFile(cfg *config.Config, path string, sink diag.Sink) *scene.Scene {
	s, err := importer.Import(path, importer.Options{
		MaxFileSize: cfg.Importer.MaxFileSizeBytes(),
		Sink:        sink,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return s
}

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool info <file>")
		os.Exit(1)
	}

	s := importFile(cfg, args[0], diag.NewZapSink(logger.Sugar))

	fmt.Printf("File:       %s\n", args[0])
	if s.FormatVersion != "" {
		fmt.Printf("Version:    %s\n", s.FormatVersion)
	}
	if s.Generator != "" {
		fmt.Printf("Generator:  %s\n", s.Generator)
	}
	fmt.Printf("Meshes:     %d\n", len(s.Meshes))
	fmt.Printf("Materials:  %d\n", len(s.Materials))
	fmt.Printf("Textures:   %d embedded\n", len(s.Textures))
	fmt.Printf("Cameras:    %d\n", len(s.Cameras))
	fmt.Printf("Lights:     %d\n", len(s.Lights))
	fmt.Printf("Animations: %d\n", len(s.Animations))
	if s.Incomplete {
		fmt.Println("Note: scene is incomplete (no meshes)")
	}

	var vertices, faces int
	for _, m := range s.Meshes {
		vertices += len(m.Vertices)
		faces += len(m.Faces)
	}
	fmt.Printf("Vertices:   %d\n", vertices)
	fmt.Printf("Faces:      %d\n", faces)

	fmt.Println()
	fmt.Println("Node tree:")
	printNode(s.RootNode, 1)
}

func printNode(n *scene.Node, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Print("  ")
	}
	name := n.Name
	if name == "" {
		name = "(unnamed)"
	}
	if len(n.Meshes) > 0 {
		fmt.Printf("%s  meshes=%v\n", name, n.Meshes)
	} else {
		fmt.Println(name)
	}
	for _, child := range n.Children {
		printNode(child, depth+1)
	}
}

func cmdValidate(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool validate <file>")
		os.Exit(1)
	}

	rec := &diag.Recorder{}
	s := importFile(cfg, args[0], rec)

	for _, w := range rec.Warnings {
		fmt.Printf("warning: line %d: %s\n", w.Line, w.Msg)
	}
	fmt.Printf("%s: %d meshes, %d warnings\n", args[0], len(s.Meshes), len(rec.Warnings))

	if s.Incomplete {
		fmt.Println("incomplete: the import produced no meshes")
	}
	if cfg.Importer.StrictWarnings && len(rec.Warnings) > 0 {
		os.Exit(1)
	}
}

func cmdTextures(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool textures <file>")
		os.Exit(1)
	}

	s := importFile(cfg, args[0], diag.NewZapSink(logger.Sugar))

	seen := make(map[string]bool)
	for _, m := range s.Materials {
		for _, ch := range []scene.MaterialChannel{m.Ambient, m.Diffuse, m.Specular, m.Emissive} {
			if ch.Texture == "" || seen[ch.Texture] {
				continue
			}
			seen[ch.Texture] = true
			if ch.Texture[0] == scene.EmbeddedTexturePrefix {
				fmt.Printf("%s  (embedded, material %q)\n", ch.Texture, m.Name)
			} else {
				fmt.Printf("%s  (material %q)\n", ch.Texture, m.Name)
			}
		}
	}
	for i, tex := range s.Textures {
		fmt.Printf("*%d: %d bytes", i, len(tex.Data))
		if tex.FormatHint != "" {
			fmt.Printf(" (%s)", tex.FormatHint)
		}
		fmt.Println()
	}
}

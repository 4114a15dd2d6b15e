package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-viewer/internal/db"
	"github.com/joeblew999/plat-viewer/internal/legend"
	"github.com/joeblew999/plat-viewer/internal/server"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/style"
)

// Options defines all CLI flags and env vars for the viewer server.
// Flags: --host, --port, --data-dir, --web-dir, --tile-url, --style, --log-level, --max-sessions
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_WEB_DIR, ...
type Options struct {
	Host        string `doc:"Host to bind to" default:"0.0.0.0"`
	Port        int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir     string `doc:"Directory for styles, tiles, sources and the DuckDB file" default:".data"`
	WebDir      string `doc:"Optional directory overriding the embedded templates and serving static files"`
	TileURL     string `doc:"Tile base URL prefilled in the loader form"`
	Style       string `doc:"Default style location: file under <data-dir>/styles or URL. Empty uses the built-in style."`
	LogLevel    string `doc:"Log level: debug, info, warn or error" default:"info"`
	MaxSessions int    `doc:"Maximum number of live viewer sessions" default:"256"`
}

func newLogger(opts *Options) *logpkg.Logger {
	level := logpkg.LogLevelInfo
	switch strings.ToLower(opts.LogLevel) {
	case "debug":
		level = logpkg.LogLevelDebug
	case "warn", "warning":
		level = logpkg.LogLevelWarn
	case "error":
		level = logpkg.LogLevelError
	}
	return logpkg.NewLogger(os.Stderr, level)
}

func newServer(ctx context.Context, opts *Options, noDB bool) (*server.Server, error) {
	return server.New(ctx, server.Config{
		Host:        opts.Host,
		Port:        fmt.Sprintf("%d", opts.Port),
		DataDir:     opts.DataDir,
		WebDir:      opts.WebDir,
		TileURL:     opts.TileURL,
		Style:       opts.Style,
		MaxSessions: opts.MaxSessions,
		NoDB:        noDB,
		Logger:      newLogger(opts),
	})
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var httpServer *http.Server

		hooks.OnStart(func() {
			srv, err := newServer(context.Background(), opts, false)
			if err != nil {
				fail("Error starting server: %v", err)
			}
			defer srv.Close()

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-viewer server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  Pages:   %s/, %s/viewer?url=<tile base>\n", baseURL, baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			httpServer = srv.HTTPServer(addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fail("Server error: %v", err)
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(ctx)
		})
	})

	cli.Root().Use = "viewer"
	cli.Root().Short = "Map viewer with a grouped layer legend"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(cmd.Context(), opts, true)
			if err != nil {
				fail("Error creating server: %v", err)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fail("Error marshaling spec: %v", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// style subcommand: print the MapLibre style of a style document
	styleCmd := &cobra.Command{
		Use:   "style [location]",
		Short: "Print the MapLibre style built from a style document",
		Args:  cobra.MaximumNArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			doc := loadStyle(cmd, args, opts)
			tileURL, _ := cmd.Flags().GetString("url")
			if tileURL == "" {
				tileURL = opts.TileURL
			}
			ms := style.Build(doc, service.NewSourceService(opts.DataDir).StyleSources(tileURL))

			output, err := json.MarshalIndent(ms, "", "  ")
			if err != nil {
				fail("Error marshaling style: %v", err)
			}
			fmt.Println(string(output))
		}),
	}
	styleCmd.Flags().StringP("url", "u", "", "Tile base URL for the vector sources")
	cli.Root().AddCommand(styleCmd)

	// groups subcommand: print the legend group tree
	groupsCmd := &cobra.Command{
		Use:   "groups [location]",
		Short: "Print the legend group tree of a style document as YAML",
		Args:  cobra.MaximumNArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			doc := loadStyle(cmd, args, opts)
			if err := writeGroups(os.Stdout, legend.BuildDocument(doc)); err != nil {
				fail("Error writing groups: %v", err)
			}
		}),
	}
	cli.Root().AddCommand(groupsCmd)

	// convert subcommand: GeoParquet to GeoJSON through DuckDB
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a GeoParquet file to GeoJSON or GeoJSONSeq",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			in, _ := cmd.Flags().GetString("input")
			out, _ := cmd.Flags().GetString("output")
			format, _ := cmd.Flags().GetString("format")
			if in == "" {
				fail("--input is required")
			}

			ctx := cmd.Context()
			logger := newLogger(opts)
			conn, err := db.Open(ctx, logger, db.Config{})
			if err != nil {
				fail("Error opening DuckDB: %v", err)
			}
			defer conn.Close()

			var w io.Writer = os.Stdout
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					fail("Error creating %s: %v", out, err)
				}
				defer f.Close()
				w = f
			}

			features := service.NewFeatureService(conn, service.NewSourceService(opts.DataDir))
			n, err := features.Convert(ctx, in, w, service.Format(format))
			if err != nil {
				fail("Error converting %s: %v", in, err)
			}
			logger.Info("wrote %d features", n)
		}),
	}
	convertCmd.Flags().StringP("input", "i", "", "GeoParquet file or URL")
	convertCmd.Flags().StringP("output", "o", "-", "Output file, - for stdout")
	convertCmd.Flags().StringP("format", "f", string(service.FormatGeoJSON), "Output format: geojson or geojsonseq")
	cli.Root().AddCommand(convertCmd)

	cli.Run()
}

// loadStyle loads the style named by the first argument, or the configured
// default style. An argument naming an existing file is read directly.
func loadStyle(cmd *cobra.Command, args []string, opts *Options) *style.Document {
	location := opts.Style
	if len(args) > 0 {
		location = args[0]
		if _, err := os.Stat(location); err == nil {
			data, err := os.ReadFile(location)
			if err != nil {
				fail("Error reading style: %v", err)
			}
			doc, err := style.Parse(data)
			if err != nil {
				fail("Error loading style %s: %v", location, err)
			}
			return doc
		}
	}
	styles := service.NewStyleService(newLogger(opts), opts.DataDir, nil)
	doc, err := styles.Load(cmd.Context(), location)
	if err != nil {
		fail("Error loading style: %v", err)
	}
	return doc
}

// groupEntry is one group of the printed tree.
type groupEntry struct {
	Name     string   `yaml:"name"`
	Children []string `yaml:"children,omitempty"`
	Layers   []string `yaml:"layers,omitempty"`
}

// writeGroups writes the groups in legend order with the layer ids each
// group's checkbox controls.
func writeGroups(w io.Writer, tree legend.Tree) error {
	var entries []groupEntry
	for _, name := range tree.Names() {
		g, ok := tree[name]
		if !ok {
			continue
		}
		e := groupEntry{Name: name, Children: g.Children}
		for _, l := range tree.Layers(name) {
			e.Layers = append(e.Layers, l.ID)
		}
		entries = append(entries, e)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}

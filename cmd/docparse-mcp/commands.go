package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ironsheep/docparse-mcp/internal/entity"
	"github.com/ironsheep/docparse-mcp/internal/export"
	"github.com/ironsheep/docparse-mcp/internal/funsd"
	"github.com/ironsheep/docparse-mcp/internal/httpapi"
	"github.com/ironsheep/docparse-mcp/internal/server"
)

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newMCPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP protocol over stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context(), flags)
		},
	}
}

func runMCP(parent context.Context, flags *globalFlags) error {
	ctx, stop := signalContext(parent)
	defer stop()

	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Debug().Str("version", Version).Str("commit", GitCommit).Msg("starting MCP server")
	srv := server.New(server.Deps{
		Parser:           a.parser,
		OCR:              a.ocr,
		Grouping:         a.groupingOptions(),
		BatchConcurrency: a.cfg.Server.BatchConcurrency,
		Logger:           a.logger,
		Version:          Version,
	})
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP document parsing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if a.cfg.Server.Environment == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			h := httpapi.NewHandler(a.parser, a.ocr, a.logger)
			router := httpapi.NewRouter(h, httpapi.RouterConfig{
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes(),
			})
			return httpapi.Serve(ctx, addr, router, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func newParseCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "parse <image>",
		Short: "Parse one page image and print its entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == export.FormatXLSX && output == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				output = export.BuildFilename(base, string(f))
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.parser.ParseFile(ctx, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
				return export.Write(w, f, res.Entities)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newGroupCmd(flags *globalFlags) *cobra.Command {
	var convention string
	cmd := &cobra.Command{
		Use:   "group <words.json>",
		Short: "Group labeled words into entities",
		Long: `group reads a JSON array of words, each {"text", "bbox", "line_index", "label"},
or "-" for stdin, and prints the grouped entities. No OCR or model is involved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			opts, conv, err := cfg.Grouping.Options()
			if err != nil {
				return err
			}
			if convention != "" {
				if conv, err = entity.ParseConvention(convention); err != nil {
					return err
				}
			}

			words, err := readWords(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			c, _ := entity.New(append(opts, entity.WithConvention(conv))...).Group(words)
			return export.WriteJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&convention, "convention", "", "auto, iob or flat (default grouping.convention)")
	return cmd
}

func readWords(stdin io.Reader, path string) ([]entity.WordRecord, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var words []entity.WordRecord
	if err := json.NewDecoder(r).Decode(&words); err != nil {
		return nil, fmt.Errorf("decoding words: %w", err)
	}
	return words, nil
}

func newFunsdCmd(flags *globalFlags) *cobra.Command {
	funsdCmd := &cobra.Command{
		Use:   "funsd",
		Short: "FUNSD dataset utilities",
	}
	funsdCmd.AddCommand(&cobra.Command{
		Use:   "convert <dataset-dir> <output-dir>",
		Short: "Flatten FUNSD annotations into training.json and testing.json",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(flags); err != nil {
				return err
			}
			counts, err := funsd.ConvertDir(args[0], args[1])
			if err != nil {
				return err
			}
			for _, split := range funsd.Splits {
				fmt.Fprintf(cmd.OutOrStdout(), "Converted %d %s documents\n", counts[split], split)
			}
			return nil
		},
	})
	return funsdCmd
}

// writeOutput runs write against path, or against stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lazygraph/lazygraph/internal/eventbus"
	"github.com/lazygraph/lazygraph/internal/events"
	"github.com/lazygraph/lazygraph/internal/language"
	"github.com/lazygraph/lazygraph/internal/otel"
	"github.com/lazygraph/lazygraph/internal/schema"
	"github.com/lazygraph/lazygraph/internal/server"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lazygraph",
		Short:         "Promise-driven GraphQL execution engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newCheckCmd())
	return root
}

type serveOptions struct {
	schemaFile   string
	dataFile     string
	addr         string
	pretty       bool
	timeout      time.Duration
	maxBody      int64
	graphiql     bool
	corsOrigins  []string
	otelEndpoint string
	otelService  string
}

func newServeCmd() *cobra.Command {
	var o serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a GraphQL endpoint over an SDL schema backed by a JSON data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(o)
		},
	}
	cmd.Flags().StringVar(&o.schemaFile, "schema", "", "path to SDL schema file (required)")
	cmd.Flags().StringVar(&o.dataFile, "data", "", "path to JSON file with root field data")
	cmd.Flags().StringVar(&o.addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().BoolVar(&o.pretty, "pretty", false, "pretty-print JSON responses")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.Flags().Int64Var(&o.maxBody, "max-body-bytes", 1<<20, "max request body size in bytes")
	cmd.Flags().BoolVar(&o.graphiql, "graphiql", true, "serve the GraphiQL IDE on GET")
	cmd.Flags().StringSliceVar(&o.corsOrigins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	cmd.Flags().StringVar(&o.otelEndpoint, "otel.endpoint", "", "OTLP collector endpoint")
	cmd.Flags().StringVar(&o.otelService, "otel.service", "lazygraph", "OpenTelemetry service name")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func runServe(o serveOptions) error {
	astSchema, err := loadSchemaFile(o.schemaFile)
	if err != nil {
		return err
	}
	s, err := schema.FromAST(astSchema)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	if o.dataFile != "" {
		if err := bindDataResolvers(s, o.dataFile); err != nil {
			return err
		}
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(o.otelEndpoint, o.otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()
	registerLogSubscribers()

	opts := []server.Option{
		server.WithTimeout(o.timeout),
		server.WithMaxBodyBytes(o.maxBody),
		server.WithGraphiQL(o.graphiql),
	}
	if o.pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(o.corsOrigins) > 0 {
		opts = append(opts, server.WithCORS(o.corsOrigins...))
	}
	h, err := server.New(s, astSchema, opts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	log.Info().Str("addr", o.addr).Str("schema", o.schemaFile).Msg("GraphQL server listening")
	return http.ListenAndServe(o.addr, mux)
}

// bindDataResolvers binds the top-level keys of a JSON object file as root
// Query field resolvers. Nested values resolve through the default resolver.
func bindDataResolvers(s *schema.Schema, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read data file: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse data file: %w", err)
	}
	if s.QueryType == "" {
		return fmt.Errorf("schema has no query type to bind data onto")
	}
	resolvers := schema.Resolvers{}
	for key, value := range data {
		if getField(s, s.QueryType, key) == nil {
			log.Warn().Str("field", key).Msg("data key has no matching query field")
			continue
		}
		v := value
		resolvers[s.QueryType+"."+key] = func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
			return v, nil
		}
	}
	return s.Bind(resolvers)
}

func getField(s *schema.Schema, typeName, fieldName string) *schema.Field {
	t := s.Types[typeName]
	if t == nil {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == fieldName {
			return f
		}
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	var schemaFile string
	cmd := &cobra.Command{
		Use:   "check [documents...]",
		Short: "Parse and validate GraphQL documents against a schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			astSchema, err := loadSchemaFile(schemaFile)
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range args {
				if !checkDocument(cmd, astSchema, path) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents invalid", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaFile, "schema", "", "path to SDL schema file (required)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func checkDocument(cmd *cobra.Command, astSchema *language.Schema, path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
		return false
	}
	doc, perr := language.ParseQuery(string(raw))
	if perr != nil {
		printLocated(cmd, path, language.AsError(perr))
		return false
	}
	if errs := language.Validate(astSchema, doc); len(errs) > 0 {
		for _, e := range errs {
			printLocated(cmd, path, e)
		}
		return false
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	return true
}

func printLocated(cmd *cobra.Command, path string, e *language.Error) {
	if len(e.Locations) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d:%d: %s\n", path, e.Locations[0].Line, e.Locations[0].Column, e.Message)
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, e.Message)
}

func loadSchemaFile(path string) (*language.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	astSchema, lerr := language.LoadSchema(path, string(raw))
	if lerr != nil {
		return nil, fmt.Errorf("load schema: %w", lerr)
	}
	return astSchema, nil
}

func registerLogSubscribers() {
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		log.Info().
			Str("method", e.Request.Method).
			Str("path", e.Request.URL.Path).
			Int("status", e.Status).
			Dur("duration", e.Duration).
			Msg("http request")
	})
	eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		log.Info().
			Str("operation", e.OperationName).
			Str("type", e.OperationType).
			Bool("synchronous", e.Synchronous).
			Int("errors", len(e.Errors)).
			Dur("duration", e.Duration).
			Msg("graphql operation")
	})
	eventbus.Subscribe(func(ctx context.Context, e events.DrainFinish) {
		if e.Deadlock {
			log.Error().Str("operation", e.OperationName).Msg("reaction queue drained with result still pending")
		}
	})
}

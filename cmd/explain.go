package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/walkabout/internal/presentation"
	"github.com/zjrosen/walkabout/internal/tracing"
)

func newExplainCmd(a *app) *cobra.Command {
	var flags lookupFlags

	cmd := &cobra.Command{
		Use:   "explain [manifest]",
		Short: "Show how a lookup is decided",
		Long: `Show every entry of the table a lookup consults, in election order,
with its rank, fingerprint, predicates and whether it matched. The first
matching entry is the one elect would return.

Examples:
  walkabout explain routes.yaml -s go:path=vendor/x.go
  walkabout explain routes.yaml -s file:path=README.md -o json | jq '.entries[] | select(.matched)'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstArg(args)

			return a.rerun(cmd, path, flags.watch, func() error {
				return tracing.Run(commandContext(cmd), a.tracer().Tracer(), tracing.SpanExplain, flags.attributes(path),
					func(_ context.Context, span trace.Span) error {
						c, err := a.catalog(path)
						if err != nil {
							return err
						}
						lookupArgs, err := flags.args(c)
						if err != nil {
							return err
						}
						xs, err := c.Domain.Explain(flags.name, lookupArgs...)
						if err != nil {
							span.AddEvent(tracing.EventMismatch)
							return err
						}
						span.SetAttributes(attribute.Int(tracing.AttrEntries, len(xs)))
						for _, x := range xs {
							if x.Selected {
								span.SetAttributes(attribute.String(tracing.AttrCandidate, x.Entry.Candidate))
							}
						}
						return a.formatter(cmd).FormatExplanation(
							presentation.FromExplanations(flags.name, flags.subjects, xs))
					})
			})
		},
	}

	flags.register(cmd)
	return cmd
}

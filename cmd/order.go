package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/walkabout/internal/presentation"
	"github.com/zjrosen/walkabout/internal/tracing"
)

func newOrderCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "order [manifest]",
		Short: "Show the predicate evaluation order",
		Long: `Show the order in which a manifest's predicates are evaluated.

Predicates evaluated earlier carry less weight. A candidate's rank grows
more specific with the weight of the predicates it constrains.

Examples:
  walkabout order routes.yaml
  walkabout order routes.yaml -o json | jq '.[].name'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstArg(args)
			attrs := []attribute.KeyValue{attribute.String(tracing.AttrManifest, path)}

			return a.rerun(cmd, path, watch, func() error {
				return tracing.Run(commandContext(cmd), a.tracer().Tracer(), tracing.SpanOrder, attrs,
					func(_ context.Context, span trace.Span) error {
						c, err := a.catalog(path)
						if err != nil {
							return err
						}
						order, err := c.Domain.Order()
						if err != nil {
							return err
						}
						span.SetAttributes(attribute.Int(tracing.AttrEntries, len(order)))
						return a.formatter(cmd).FormatOrder(presentation.FromWeighted(order))
					})
			})
		},
	}

	addWatchFlag(cmd, &watch)
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

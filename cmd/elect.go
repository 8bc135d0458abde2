package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/walkabout/internal/dispatch"
	"github.com/zjrosen/walkabout/internal/log"
	"github.com/zjrosen/walkabout/internal/manifest"
	"github.com/zjrosen/walkabout/internal/presentation"
	"github.com/zjrosen/walkabout/internal/tracing"
)

// lookupFlags are shared by elect and explain.
type lookupFlags struct {
	subjects []string
	name     string
	watch    bool
}

func (f *lookupFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.subjects, "subject", "s", nil,
		"subject literal kind:field=value,... (repeat for multiple arguments)")
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "lookup name (default: the unnamed table)")
	_ = cmd.MarkFlagRequired("subject")
	addWatchFlag(cmd, &f.watch)
}

func (f *lookupFlags) attributes(path string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(tracing.AttrManifest, path),
		attribute.String(tracing.AttrLookupName, f.name),
		attribute.StringSlice(tracing.AttrSubjects, f.subjects),
	}
}

// args parses the subject literals into lookup arguments.
func (f *lookupFlags) args(c *manifest.Catalog) ([]any, error) {
	args := make([]any, len(f.subjects))
	for i, literal := range f.subjects {
		s, err := c.Subject(literal)
		if err != nil {
			return nil, fmt.Errorf("subject %d: %w", i+1, err)
		}
		args[i] = s
	}
	return args, nil
}

func newElectCmd(a *app) *cobra.Command {
	var (
		flags lookupFlags
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "elect [manifest]",
		Short: "Elect the candidate for the given subjects",
		Long: `Elect the most specific candidate whose predicates accept the subjects.

Each --subject is one lookup argument, written kind:field=value,...
The command fails when no candidate matches.

Examples:
  walkabout elect routes.yaml -s go:path=cmd/main.go
  walkabout elect routes.yaml -s image:owner=alice -n audit
  walkabout elect routes.yaml -s go:path=main.go,owner=alice --all -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstArg(args)
			attrs := flags.attributes(path)

			return a.rerun(cmd, path, flags.watch, func() error {
				return tracing.Run(commandContext(cmd), a.tracer().Tracer(), tracing.SpanElect, attrs,
					func(_ context.Context, span trace.Span) error {
						c, err := a.catalog(path)
						if err != nil {
							return err
						}
						lookupArgs, err := flags.args(c)
						if err != nil {
							return err
						}

						var elections []presentation.ElectionDTO
						if all {
							elections = presentation.FromNamed(c.Domain.All(lookupArgs...), flags.subjects)
							if len(elections) == 0 {
								span.AddEvent(tracing.EventMismatch)
								return fmt.Errorf("%w for %v", dispatch.ErrMismatch, flags.subjects)
							}
						} else {
							candidate, err := c.Domain.Lookup(flags.name, lookupArgs...)
							if err != nil {
								span.AddEvent(tracing.EventMismatch,
									trace.WithAttributes(attribute.String(tracing.AttrLookupName, flags.name)))
								return err
							}
							elections = []presentation.ElectionDTO{{
								Name:      flags.name,
								Candidate: candidate,
								Subjects:  flags.subjects,
							}}
						}

						ids := make([]string, len(elections))
						for i, e := range elections {
							ids[i] = e.Candidate
						}
						span.SetAttributes(attribute.StringSlice(tracing.AttrCandidates, ids))
						log.Debug(log.CatCLI, "Elected", "name", flags.name, "candidates", ids)

						return a.formatter(cmd).FormatElections(elections)
					})
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "elect one candidate per lookup name")
	return cmd
}

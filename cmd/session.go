package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
	"github.com/KaramelBytes/setlist-cli/internal/grouping"
	"github.com/KaramelBytes/setlist-cli/internal/model"
	"github.com/KaramelBytes/setlist-cli/internal/report"
	"github.com/KaramelBytes/setlist-cli/internal/run"
	"github.com/KaramelBytes/setlist-cli/internal/similarity"
	"github.com/KaramelBytes/setlist-cli/internal/sink"
	"github.com/KaramelBytes/setlist-cli/internal/source"
	"github.com/KaramelBytes/setlist-cli/pkg/logger"
	"github.com/KaramelBytes/setlist-cli/pkg/metrics"
)

// session carries what one analysis command needs from start to finish.
type session struct {
	ctx     context.Context
	command string
	cmd     *cobra.Command
	log     logger.Logger
	run     *run.Run
	sink    sink.Sink
	src     source.Source
	started time.Time
}

// openSession validates config, creates the run directory and, when
// withSource is set, opens the configured input.
func openSession(cmd *cobra.Command, command string, withSource bool) (*session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &session{
		ctx:     cmd.Context(),
		command: command,
		cmd:     cmd,
		log:     logger.Named(command),
		started: time.Now(),
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	s.run = run.New(cfg.OutputDir, command, cfg.Snapshot())
	s.sink = sink.NewDir(s.run, s.log)
	if withSource {
		src, err := source.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		s.src = src
		s.run.Source = cfg.Database
	}
	s.log.Info(s.ctx, "run started",
		logger.String("run_id", s.run.ID),
		logger.String("source", cfg.Database),
		logger.String("dir", s.run.RootDir()))
	return s, nil
}

// close releases the source.
func (s *session) close() {
	if s.src != nil {
		if err := s.src.Close(); err != nil {
			s.log.Warn(s.ctx, "closing source", logger.Error(err))
		}
	}
}

// events runs q and records how many records came back.
func (s *session) events(q source.Query) ([]model.Event, error) {
	events, err := s.src.Events(s.ctx, q)
	if err != nil {
		return nil, err
	}
	s.log.Info(s.ctx, "records read", logger.String("query", q.Kind.String()), logger.Int("rows", len(events)))
	metrics.RecordRecordsRead(s.command, len(events))
	return events, nil
}

// group builds the identifier index with the configured policy and scorer.
func (s *session) group(events []model.Event) (*grouping.Index, error) {
	policy, err := grouping.ParsePolicy(cfg.GroupingPolicy)
	if err != nil {
		return nil, err
	}
	scorer, err := similarity.ByName(cfg.Scorer)
	if err != nil {
		return nil, err
	}
	ids := model.IDs(events)
	idx, err := grouping.Build(s.ctx, ids,
		grouping.WithPolicy(policy),
		grouping.WithThreshold(cfg.SimilarityThreshold),
		grouping.WithScorer(scorer),
		grouping.WithLogger(s.log.Named("grouping")),
	)
	if err != nil {
		return nil, err
	}
	s.run.IDs, s.run.Groups = idx.Size(), idx.Len()
	metrics.SetGrouping(s.command, idx.Size(), idx.Len())
	s.log.Info(s.ctx, "identifiers grouped",
		logger.Int("identifiers", idx.Size()),
		logger.Int("groups", idx.Len()),
		logger.String("policy", string(policy)),
		logger.Float64("threshold", cfg.SimilarityThreshold))
	return idx, s.write(sink.Table, "groups", func(w io.Writer) error {
		return report.WriteGroups(w, idx.Groups())
	})
}

// drops records excluded records on the manifest, metrics and log.
func (s *session) drops(d aggregate.DropStats) {
	s.run.Drops.Add(d)
	metrics.RecordDropped(s.command, metrics.ReasonMissingScore, d.MissingScore)
	metrics.RecordDropped(s.command, metrics.ReasonMissingPredecessor, d.MissingPredecessor)
	if d.Dropped() > 0 {
		s.log.Info(s.ctx, "records dropped",
			logger.Int("missing_score", d.MissingScore),
			logger.Int("missing_predecessor", d.MissingPredecessor),
			logger.Int("kept", d.Kept))
	}
}

// write sends one output through the sink.
func (s *session) write(kind sink.Kind, name string, fn func(io.Writer) error) error {
	if err := sink.Write(s.sink, kind, name, fn); err != nil {
		return err
	}
	metrics.RecordOutput(s.command, string(kind))
	return nil
}

// finish writes the summary and manifest, flushes metrics and prints where
// everything went.
func (s *session) finish(sum *report.Summary) error {
	sum.Command = s.command
	sum.RunID = s.run.ID
	sum.Source = s.run.Source
	sum.Identifiers, sum.Groups = s.run.IDs, s.run.Groups
	if s.src != nil {
		sum.Settings = append([]report.Setting{
			{Key: "similarity_threshold", Value: cfg.SimilarityThreshold},
			{Key: "grouping_policy", Value: cfg.GroupingPolicy},
			{Key: "scorer", Value: cfg.Scorer},
		}, sum.Settings...)
	}
	sum.Outputs = s.run.OutputPaths()
	if err := s.write(sink.Report, "summary", func(w io.Writer) error {
		return report.WriteSummary(w, sum)
	}); err != nil {
		return err
	}
	if err := s.run.Save(); err != nil {
		return fmt.Errorf("save run manifest: %w", err)
	}

	metrics.ObserveRunDuration(s.command, time.Since(s.started))
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			s.log.Warn(s.ctx, "metrics textfile not written", logger.Error(err))
		}
	}
	s.log.Info(s.ctx, "run finished",
		logger.String("run_id", s.run.ID),
		logger.Int("outputs", len(s.run.Outputs)),
		logger.Any("elapsed", time.Since(s.started).Round(time.Millisecond)))

	out := s.cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s run %s\n", s.command, s.run.ID)
	for _, p := range s.run.OutputPaths() {
		fmt.Fprintf(out, "  %s\n", p)
	}
	return nil
}

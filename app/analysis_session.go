package app

import (
	"fmt"
	"io"
	"time"

	"biodelta/domain/community"
	"biodelta/domain/comparison"
	"biodelta/domain/core"
	"biodelta/domain/diversity"
	"biodelta/internal"
	"biodelta/internal/errors"
	"biodelta/ports"
)

// AnalysisSession holds the before and after samples of one comparison and
// the most recent result. It is not safe for concurrent use; callers that
// share a session across goroutines must serialize access.
type AnalysisSession struct {
	id         core.SessionID
	reader     ports.TableReader
	exporter   ports.ResultExporter
	calculator *diversity.Calculator
	now        func() time.Time
	logger     *internal.Logger

	samples [2]*community.Sample
	last    *comparison.Analysis
}

// NewAnalysisSession creates an empty session
func NewAnalysisSession(reader ports.TableReader, exporter ports.ResultExporter, calculator *diversity.Calculator) *AnalysisSession {
	if calculator == nil {
		calculator = diversity.NewCalculator(diversity.DefaultLossThreshold)
	}
	id := core.NewSessionID()
	return &AnalysisSession{
		id:         id,
		reader:     reader,
		exporter:   exporter,
		calculator: calculator,
		now:        time.Now,
		logger:     internal.NewDefaultLogger("Session " + id.Short()),
	}
}

// ID returns the session identifier
func (s *AnalysisSession) ID() core.SessionID {
	return s.id
}

// Logger returns the session's logger so presentation layers can log at the
// same level
func (s *AnalysisSession) Logger() *internal.Logger {
	return s.logger
}

// Threshold returns the loss threshold results are classified against
func (s *AnalysisSession) Threshold() float64 {
	return s.calculator.Threshold()
}

// LoadSample reads a table from path and stores it as the given side. The
// table must carry Species and Proportion columns. On failure the side keeps
// whatever sample it held before.
func (s *AnalysisSession) LoadSample(side community.Side, path string) (*community.Sample, error) {
	table, err := s.reader.ReadTable(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s data", side)
	}
	return s.loadTable(side, path, table)
}

// LoadTable stores an already-parsed table as the given side. source is kept
// for display only.
func (s *AnalysisSession) LoadTable(side community.Side, source string, table *community.Table) (*community.Sample, error) {
	return s.loadTable(side, source, table)
}

func (s *AnalysisSession) loadTable(side community.Side, source string, table *community.Table) (*community.Sample, error) {
	sample, err := community.FromTable(side, source, table)
	if err != nil {
		return nil, err
	}
	if err := s.UseSample(sample); err != nil {
		return nil, err
	}

	profile := community.ProfileOf(sample)
	s.logger.Info("%s sample loaded from %s (%d rows, %d present, total %.4f)",
		side, source, profile.Rows, profile.Richness, profile.Total)
	s.logger.Debug("%s proportions range %.4f to %.4f, evenness %.4f",
		side, profile.Min, profile.Max, profile.Evenness)
	if profile.Rows > 0 && !profile.SumsToOne {
		s.logger.Warn("%s proportions sum to %.4f; entropy is computed without normalization",
			side, profile.Total)
	}
	return sample, nil
}

// UseSample stores a sample that was built in memory. The sample's Side
// decides which slot it fills.
func (s *AnalysisSession) UseSample(sample *community.Sample) error {
	if sample == nil {
		return errors.InvalidInput("no sample given")
	}
	if !validSide(sample.Side) {
		return errors.InvalidInput(fmt.Sprintf("unknown sample side %s", sample.Side))
	}
	s.samples[sample.Side] = sample
	return nil
}

// Sample returns the sample loaded for side, or nil
func (s *AnalysisSession) Sample(side community.Side) *community.Sample {
	if !validSide(side) {
		return nil
	}
	return s.samples[side]
}

func validSide(side community.Side) bool {
	return side == community.Before || side == community.After
}

// Ready reports whether both samples are loaded
func (s *AnalysisSession) Ready() bool {
	return s.samples[community.Before] != nil && s.samples[community.After] != nil
}

// Analyze computes the entropy of each loaded sample and classifies the
// change. Each side's entropy uses only its own proportion column; rows are
// not matched by species. A failed call leaves the previous result in place.
func (s *AnalysisSession) Analyze() (*comparison.Analysis, error) {
	if !s.Ready() {
		return nil, errors.StateError("please load both Before and After files first")
	}

	before, after := s.samples[community.Before], s.samples[community.After]
	for _, sample := range []*community.Sample{before, after} {
		if err := sample.Validate(); err != nil {
			return nil, err
		}
	}

	analysis := &comparison.Analysis{
		Result:       s.calculator.Compare(before.Proportions, after.Proportions),
		Species:      append([]string(nil), before.Species...),
		Before:       append([]float64(nil), before.Proportions...),
		After:        append([]float64(nil), after.Proportions...),
		BeforeSource: before.Source,
		AfterSource:  after.Source,
		AnalyzedAt:   s.now(),
	}
	s.last = analysis

	s.logger.Info("H_before=%.4f H_after=%.4f ΔH=%.4f threshold=%.2f -> %s",
		analysis.Result.Before, analysis.Result.After, analysis.Result.Delta,
		analysis.Result.Threshold, analysis.Result.Classification)
	if analysis.LengthMismatch() {
		s.logger.Warn("sample lengths differ (%d before, %d after); export pairs rows by position",
			len(before.Proportions), len(after.Proportions))
	}
	return analysis, nil
}

// Result returns the most recent analysis, or nil before the first
// successful Analyze.
func (s *AnalysisSession) Result() *comparison.Analysis {
	return s.last
}

// Export writes the most recent analysis to path.
func (s *AnalysisSession) Export(path string) error {
	if s.last == nil {
		return errors.StateError("no analysis results to save")
	}
	if err := s.exporter.Export(path, s.last); err != nil {
		return errors.Wrapf(err, "failed to save results to %s", path)
	}
	s.logger.Info("results saved to %s", path)
	return nil
}

// ExportTo streams the most recent analysis workbook to w.
func (s *AnalysisSession) ExportTo(w io.Writer) error {
	if s.last == nil {
		return errors.StateError("no analysis results to save")
	}
	return s.exporter.WriteTo(w, s.last)
}

// Reset drops both samples and the last result.
func (s *AnalysisSession) Reset() {
	s.samples = [2]*community.Sample{}
	s.last = nil
}

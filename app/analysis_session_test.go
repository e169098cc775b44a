package app

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"biodelta/adapters/excel"
	"biodelta/domain/community"
	"biodelta/domain/comparison"
	"biodelta/domain/diversity"
	"biodelta/internal/errors"
	"biodelta/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTableReader serves canned tables by path
type MockTableReader struct {
	mock.Mock
}

func (m *MockTableReader) ReadTable(path string) (*community.Table, error) {
	args := m.Called(path)
	table, _ := args.Get(0).(*community.Table)
	return table, args.Error(1)
}

// MockExporter records export calls
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(path string, analysis *comparison.Analysis) error {
	args := m.Called(path, analysis)
	return args.Error(0)
}

func (m *MockExporter) WriteTo(w io.Writer, analysis *comparison.Analysis) error {
	args := m.Called(w, analysis)
	return args.Error(0)
}

func writeCSV(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := "Species,Proportion\n"
	for _, r := range rows {
		content += r + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFileSession() *AnalysisSession {
	return NewAnalysisSession(
		excel.NewDataReader(),
		excel.NewWorkbookExporter(excel.DefaultExportConfig()),
		diversity.NewCalculator(diversity.DefaultLossThreshold),
	)
}

func TestSessionEndToEndSignificantLoss(t *testing.T) {
	dir := t.TempDir()
	session := newFileSession()

	_, err := session.LoadSample(community.Before, writeCSV(t, dir, "before.csv", "A,0.5", "B,0.5"))
	require.NoError(t, err)
	_, err = session.LoadSample(community.After, writeCSV(t, dir, "after.csv", "A,0.9", "B,0.1"))
	require.NoError(t, err)

	analysis, err := session.Analyze()
	require.NoError(t, err)

	assert.InDelta(t, 1.0, analysis.Result.Before, 1e-12)
	assert.InDelta(t, 0.469, analysis.Result.After, 1e-3)
	assert.InDelta(t, 0.531, analysis.Result.Delta, 1e-3)
	assert.Equal(t, diversity.SignificantLoss, analysis.Result.Classification)
	assert.Equal(t, []string{"A", "B"}, analysis.Species)
	assert.Equal(t, []float64{0.5, 0.5}, analysis.Before)
	assert.Equal(t, []float64{0.9, 0.1}, analysis.After)
	assert.Same(t, analysis, session.Result())

	out := filepath.Join(dir, "results.xlsx")
	require.NoError(t, session.Export(out))
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestSessionIdenticalSamplesAreNormal(t *testing.T) {
	dir := t.TempDir()
	session := newFileSession()
	path := writeCSV(t, dir, "same.csv", "A,0.2", "B,0.3", "C,0.5")

	_, err := session.LoadSample(community.Before, path)
	require.NoError(t, err)
	_, err = session.LoadSample(community.After, path)
	require.NoError(t, err)

	analysis, err := session.Analyze()
	require.NoError(t, err)
	assert.Equal(t, 0.0, analysis.Result.Delta)
	assert.Equal(t, diversity.Normal, analysis.Result.Classification)
}

func TestSessionSpeciesIdentityIsNotMatched(t *testing.T) {
	dir := t.TempDir()
	session := newFileSession()

	_, err := session.LoadSample(community.Before, writeCSV(t, dir, "before.csv", "A,0.9", "B,0.1"))
	require.NoError(t, err)
	_, err = session.LoadSample(community.After, writeCSV(t, dir, "after.csv", "X,0.1", "Y,0.9"))
	require.NoError(t, err)

	analysis, err := session.Analyze()
	require.NoError(t, err)
	assert.Equal(t, analysis.Result.Before, analysis.Result.After)
	assert.Equal(t, []string{"A", "B"}, analysis.Species)
}

func TestAnalyzeRequiresBothSamples(t *testing.T) {
	session := newFileSession()

	_, err := session.Analyze()
	require.Error(t, err)
	assert.Equal(t, errors.CodeStateError, errors.GetCode(err))

	require.NoError(t, session.UseSample(&community.Sample{Side: community.Before, Species: []string{"A"}, Proportions: []float64{1}}))
	_, err = session.Analyze()
	assert.Equal(t, errors.CodeStateError, errors.GetCode(err))
	assert.False(t, session.Ready())
}

func TestExportBeforeAnalyze(t *testing.T) {
	exporter := new(MockExporter)
	session := NewAnalysisSession(new(MockTableReader), exporter, nil)

	err := session.Export(filepath.Join(t.TempDir(), "out.xlsx"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeStateError, errors.GetCode(err))

	err = session.ExportTo(&bytes.Buffer{})
	assert.Equal(t, errors.CodeStateError, errors.GetCode(err))
	exporter.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
}

func TestLoadSampleMissingProportionNamesSide(t *testing.T) {
	reader := new(MockTableReader)
	reader.On("ReadTable", "after.csv").Return(&community.Table{
		Headers: []string{"Species", "Abundance"},
		Rows:    []community.Row{{"Species": "A", "Abundance": "3"}},
	}, nil)
	session := NewAnalysisSession(reader, new(MockExporter), nil)

	_, err := session.LoadSample(community.After, "after.csv")

	require.Error(t, err)
	assert.Equal(t, errors.CodeSchemaError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "After data")
	assert.Contains(t, err.Error(), "'Proportion'")
	assert.Nil(t, session.Sample(community.After))
	reader.AssertExpectations(t)
}

func TestLoadSampleUnreadableFile(t *testing.T) {
	session := newFileSession()

	_, err := session.LoadSample(community.Before, filepath.Join(t.TempDir(), "nope.csv"))

	require.Error(t, err)
	assert.Equal(t, errors.CodeIOError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "failed to load Before data")
}

func TestFailedLoadKeepsPreviousSample(t *testing.T) {
	dir := t.TempDir()
	session := newFileSession()
	good, err := session.LoadSample(community.Before, writeCSV(t, dir, "before.csv", "A,1"))
	require.NoError(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Species,Count\nA,3\n"), 0o644))
	_, err = session.LoadSample(community.Before, bad)
	require.Error(t, err)

	assert.Same(t, good, session.Sample(community.Before))
}

func TestAnalyzeSchemaErrorNamesSide(t *testing.T) {
	session := newFileSession()
	require.NoError(t, session.UseSample(&community.Sample{Side: community.Before, Species: []string{"A"}, Proportions: []float64{1}}))
	require.NoError(t, session.UseSample(&community.Sample{Side: community.After, Species: []string{"A", "B"}, Proportions: []float64{1}}))

	_, err := session.Analyze()

	require.Error(t, err)
	assert.Equal(t, errors.CodeSchemaError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "After data")
}

func TestFailedAnalyzeKeepsPreviousResult(t *testing.T) {
	session := newFileSession()
	require.NoError(t, session.UseSample(&community.Sample{Side: community.Before, Species: []string{"A", "B"}, Proportions: []float64{0.5, 0.5}}))
	require.NoError(t, session.UseSample(&community.Sample{Side: community.After, Species: []string{"A"}, Proportions: []float64{1}}))
	first, err := session.Analyze()
	require.NoError(t, err)

	require.NoError(t, session.UseSample(&community.Sample{Side: community.After, Species: []string{"A"}, Proportions: nil}))
	_, err = session.Analyze()
	require.Error(t, err)

	assert.Same(t, first, session.Result())
}

func TestExportWrapsExporterFailure(t *testing.T) {
	exporter := new(MockExporter)
	exporter.On("Export", "/read-only/out.xlsx", mock.Anything).
		Return(errors.IOError("/read-only/out.xlsx", fmt.Errorf("permission denied")))
	session := NewAnalysisSession(new(MockTableReader), exporter, nil)
	require.NoError(t, session.UseSample(&community.Sample{Side: community.Before, Species: []string{"A"}, Proportions: []float64{1}}))
	require.NoError(t, session.UseSample(&community.Sample{Side: community.After, Species: []string{"A"}, Proportions: []float64{1}}))
	_, err := session.Analyze()
	require.NoError(t, err)

	err = session.Export("/read-only/out.xlsx")

	require.Error(t, err)
	assert.Equal(t, errors.CodeIOError, errors.GetCode(err))
	exporter.AssertExpectations(t)
}

func TestAnalysisIsDetachedFromSamples(t *testing.T) {
	session := newFileSession()
	before := &community.Sample{Side: community.Before, Species: []string{"A", "B"}, Proportions: []float64{0.5, 0.5}}
	require.NoError(t, session.UseSample(before))
	require.NoError(t, session.UseSample(&community.Sample{Side: community.After, Species: []string{"A"}, Proportions: []float64{1}}))

	analysis, err := session.Analyze()
	require.NoError(t, err)
	before.Proportions[0] = 0.99
	before.Species[0] = "Z"

	assert.Equal(t, []float64{0.5, 0.5}, analysis.Before)
	assert.Equal(t, "A", analysis.Species[0])
}

func TestUseSampleRejectsUnknownSide(t *testing.T) {
	session := newFileSession()

	err := session.UseSample(&community.Sample{Side: community.Side(9)})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(session.UseSample(nil)))
	assert.Nil(t, session.Sample(community.Side(9)))
}

func TestResetClearsSession(t *testing.T) {
	session := newFileSession()
	require.NoError(t, session.UseSample(&community.Sample{Side: community.Before}))
	require.NoError(t, session.UseSample(&community.Sample{Side: community.After}))
	_, err := session.Analyze()
	require.NoError(t, err)

	session.Reset()

	assert.Nil(t, session.Result())
	assert.False(t, session.Ready())
	assert.Equal(t, diversity.DefaultLossThreshold, session.Threshold())
	assert.False(t, session.ID().String() == "")
}

func TestSessionGeneratedCommunities(t *testing.T) {
	dir := t.TempDir()
	gen := testkit.NewCommunityGenerator(testkit.DefaultCommunityConfig())
	before, after := gen.Pair()
	beforePath, afterPath := filepath.Join(dir, "before.csv"), filepath.Join(dir, "after.csv")
	require.NoError(t, testkit.WriteCSV(beforePath, before))
	require.NoError(t, testkit.WriteCSV(afterPath, after))

	session := newFileSession()
	_, err := session.LoadSample(community.Before, beforePath)
	require.NoError(t, err)
	_, err = session.LoadSample(community.After, afterPath)
	require.NoError(t, err)

	analysis, err := session.Analyze()
	require.NoError(t, err)
	assert.Equal(t, diversity.SignificantLoss, analysis.Result.Classification)
	assert.Len(t, analysis.SpeciesRows(), 20)

	out := filepath.Join(dir, "entropy_results.xlsx")
	require.NoError(t, session.Export(out))
	assert.FileExists(t, out)
}

func TestLoadSampleRejectsInfiniteProportion(t *testing.T) {
	dir := t.TempDir()
	session := newFileSession()

	_, err := session.LoadSample(community.Before, writeCSV(t, dir, "before.csv", "A,0.5", "B,inf"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeSchemaError))
	assert.Contains(t, err.Error(), "Before data")
	assert.Nil(t, session.Sample(community.Before))
}

func TestSessionLoggerIsShared(t *testing.T) {
	session := newFileSession()
	require.NotNil(t, session.Logger())
	assert.Equal(t, session.Logger().GetLevel(), session.Logger().With("UI").GetLevel())
}

package extsort

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/flatbase/internal/record"
)

var header = []string{"id", "name", "age"}

func writeTestRun(t *testing.T, dir string, n int, rows [][]string) string {
	t.Helper()
	path := filepath.Join(dir, "run_"+string(rune('0'+n))+".csv")
	require.NoError(t, WriteRun(path, header, rows))
	return path
}

func ages(rows [][]string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[2]
	}
	return out
}

func TestWriteReadRunRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rows := [][]string{{"1", "Alice", "30"}, {"2", "Bob", "25"}}
	path := writeTestRun(t, dir, 0, rows)

	h, back, err := ReadRun(path)
	require.NoError(t, err)
	require.Equal(t, header, h)
	require.Equal(t, rows, back)
}

func TestMergeSingleRun(t *testing.T) {
	dir := t.TempDir()
	path := writeTestRun(t, dir, 0, [][]string{{"1", "Alice", "30"}})

	out, err := Merge([]string{path}, Key{Column: "age", Type: record.TypeInt})
	require.NoError(t, err)
	require.Equal(t, path, out)
}

func TestMergeTwoRunsAscending(t *testing.T) {
	dir := t.TempDir()
	// each run is sorted numerically by age; "2" before "10" proves the
	// merge compares typed values, not text
	r0 := writeTestRun(t, dir, 0, [][]string{{"1", "A", "2"}, {"2", "B", "10"}})
	r1 := writeTestRun(t, dir, 1, [][]string{{"3", "C", "5"}, {"4", "D", "30"}})

	out, err := Merge([]string{r0, r1}, Key{Column: "age", Type: record.TypeInt})
	require.NoError(t, err)

	_, rows, err := ReadRun(out)
	require.NoError(t, err)
	require.Equal(t, []string{"2", "5", "10", "30"}, ages(rows))

	// consumed inputs are deleted
	_, err = os.Stat(r0)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(r1)
	require.True(t, os.IsNotExist(err))
}

func TestMergeDescending(t *testing.T) {
	dir := t.TempDir()
	r0 := writeTestRun(t, dir, 0, [][]string{{"1", "A", "30"}, {"2", "B", "2"}})
	r1 := writeTestRun(t, dir, 1, [][]string{{"3", "C", "10"}, {"4", "D", "5"}})

	out, err := Merge([]string{r0, r1}, Key{Column: "age", Type: record.TypeInt, Desc: true})
	require.NoError(t, err)

	_, rows, err := ReadRun(out)
	require.NoError(t, err)
	require.Equal(t, []string{"30", "10", "5", "2"}, ages(rows))
}

func TestMergeOddRunCountCarriesOver(t *testing.T) {
	dir := t.TempDir()
	r0 := writeTestRun(t, dir, 0, [][]string{{"1", "A", "1"}, {"2", "B", "7"}})
	r1 := writeTestRun(t, dir, 1, [][]string{{"3", "C", "4"}})
	r2 := writeTestRun(t, dir, 2, [][]string{{"4", "D", "2"}, {"5", "E", "9"}})

	out, err := Merge([]string{r0, r1, r2}, Key{Column: "age", Type: record.TypeInt})
	require.NoError(t, err)

	_, rows, err := ReadRun(out)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "4", "7", "9"}, ages(rows))
}

func TestMergeUnequalRunLengths(t *testing.T) {
	dir := t.TempDir()
	r0 := writeTestRun(t, dir, 0, [][]string{{"1", "A", "3"}})
	r1 := writeTestRun(t, dir, 1, [][]string{
		{"2", "B", "1"}, {"3", "C", "2"}, {"4", "D", "8"}, {"5", "E", "9"},
	})

	out, err := Merge([]string{r0, r1}, Key{Column: "age", Type: record.TypeInt})
	require.NoError(t, err)

	_, rows, err := ReadRun(out)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3", "8", "9"}, ages(rows))
}

func TestMergeNoRuns(t *testing.T) {
	_, err := Merge(nil, Key{Column: "age", Type: record.TypeInt})
	require.Error(t, err)
}

func TestMergeUnknownKeyColumn(t *testing.T) {
	dir := t.TempDir()
	r0 := writeTestRun(t, dir, 0, [][]string{{"1", "A", "3"}})
	r1 := writeTestRun(t, dir, 1, [][]string{{"2", "B", "1"}})

	_, err := Merge([]string{r0, r1}, Key{Column: "salary", Type: record.TypeInt})
	require.Error(t, err)
}

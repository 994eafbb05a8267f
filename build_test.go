package storezip

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/storezip/internal/testutil"
)

const twoFileArchiveHex = "504b030414000000000000000000ac2a93d8020000000200000005000000612e7478746869" +
	"504b03041400000000000000000089ac29620200000002000000090000006469722f622e747874796f" +
	"504b0102140014000000000000000000ac2a93d80200000002000000050000000000000000000000000000000000612e747874" +
	"504b010214001400000000000000000089ac296202000000020000000900000000000000000000000000250000006469722f622e747874" +
	"504b050600000000020002006a0000004e0000000000"

func twoFiles() []Entry {
	return []Entry{
		{Path: "a.txt", Content: []byte("hi")},
		{Path: "dir/b.txt", Content: []byte("yo")},
	}
}

func TestBuildTwoFiles(t *testing.T) {
	t.Parallel()

	archive, err := Build(twoFiles())
	require.NoError(t, err)

	want, err := hex.DecodeString(twoFileArchiveHex)
	require.NoError(t, err)
	assert.Equal(t, want, archive)

	files := testutil.ReadZip(t, archive)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, []byte("hi"), files[0].Content)
	assert.Equal(t, "dir/b.txt", files[1].Name)
	assert.Equal(t, []byte("yo"), files[1].Content)
	for _, f := range files {
		assert.Equal(t, uint16(0), f.Method, "store method for %s", f.Name)
	}
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	for _, entries := range [][]Entry{nil, {}} {
		archive, err := Build(entries)
		require.NoError(t, err)
		require.Len(t, archive, 22)

		end := testutil.ParseEndRecord(t, archive)
		assert.Zero(t, end.DiskEntries)
		assert.Zero(t, end.TotalEntries)
		assert.Zero(t, end.CentralDirectorySize)
		assert.Zero(t, end.CentralDirectoryOffset)
		assert.Zero(t, end.CommentLen)

		assert.Empty(t, testutil.ReadZip(t, archive))
		assert.Empty(t, testutil.ReadZipKlauspost(t, archive))
	}
}

func TestBuildRoundTrip(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Path: "README.md", Content: []byte("# bot template\n")},
		{Path: "src/bot.py", Content: bytes.Repeat([]byte("print('x')\n"), 500)},
		{Path: "src/__init__.py", Content: nil},
		{Path: "config/.env", Content: []byte("TOKEN=abc\nCHANNEL=42\n")},
		{Path: "bin/blob", Content: []byte{0x00, 0xff, 0x50, 0x4b, 0x03, 0x04, 0x00}},
		{Path: "unicode/héllo wörld.txt", Content: []byte("ünïcödé")},
	}

	archive, err := Build(entries)
	require.NoError(t, err)

	for name, read := range map[string]func(testing.TB, []byte) []testutil.File{
		"stdlib":    testutil.ReadZip,
		"klauspost": testutil.ReadZipKlauspost,
	} {
		t.Run(name, func(t *testing.T) {
			files := read(t, archive)
			require.Len(t, files, len(entries))
			for i, f := range files {
				assert.Equal(t, entries[i].Path, f.Name)
				assert.Equal(t, len(entries[i].Content), len(f.Content))
				assert.True(t, bytes.Equal(entries[i].Content, f.Content), "content of %s", f.Name)
			}
		})
	}
}

func TestBuildEmptyContentHasZeroCRC(t *testing.T) {
	t.Parallel()

	archive, err := Build([]Entry{{Path: "empty.txt"}})
	require.NoError(t, err)

	files := testutil.ReadZip(t, archive)
	require.Len(t, files, 1)
	assert.Empty(t, files[0].Content)
	assert.Equal(t, uint32(0), files[0].CRC32)
	assert.Len(t, archive, 30+9+46+9+22)
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	first, err := Build(twoFiles())
	require.NoError(t, err)
	for range 5 {
		again, err := Build(twoFiles())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "sha256:06847c4424c242d3df878336540446909cad9f01d8579f090309207f7467dc6b", Digest(first).String())
}

func TestBuildOffsetAndSummaryLaws(t *testing.T) {
	t.Parallel()

	var entries []Entry
	for i := range 25 {
		entries = append(entries, Entry{
			Path:    fmt.Sprintf("dir%d/file-%d.txt", i%4, i),
			Content: bytes.Repeat([]byte{byte(i)}, i*37),
		})
	}

	archive, err := Build(entries)
	require.NoError(t, err)

	locals := testutil.LocalLengths(t, archive)
	require.Len(t, locals, len(entries))
	offsets := testutil.CentralOffsets(t, archive)
	require.Len(t, offsets, len(entries))

	sum := 0
	for i, n := range locals {
		assert.Equal(t, uint32(sum), offsets[i], "offset of entry %d", i) //nolint:gosec // small test sizes
		assert.Equal(t, 30+len(entries[i].Path)+len(entries[i].Content), n)
		sum += n
	}

	end := testutil.ParseEndRecord(t, archive)
	assert.Equal(t, uint16(len(entries)), end.TotalEntries)
	assert.Equal(t, end.TotalEntries, end.DiskEntries)
	assert.Equal(t, uint32(sum), end.CentralDirectoryOffset) //nolint:gosec // small test sizes
	assert.Equal(t, len(archive), sum+int(end.CentralDirectorySize)+22)
}

func TestBuildNormalizesPaths(t *testing.T) {
	t.Parallel()

	archive, err := Build([]Entry{
		{Path: `..\..\evil.txt`, Content: []byte("1")},
		{Path: "/a/./b/../c.txt", Content: []byte("2")},
		{Path: `src\bot.py`, Content: []byte("3")},
	})
	require.NoError(t, err)

	files := testutil.ReadZip(t, archive)
	require.Len(t, files, 3)
	assert.Equal(t, "evil.txt", files[0].Name)
	assert.Equal(t, "a/c.txt", files[1].Name)
	assert.Equal(t, "src/bot.py", files[2].Name)
	for _, f := range files {
		assert.NotContains(t, f.Name, "..")
		assert.False(t, strings.HasPrefix(f.Name, "/"))
	}
}

func TestBuildDropsEmptyPaths(t *testing.T) {
	t.Parallel()

	archive, err := Build([]Entry{
		{Path: "../..", Content: []byte("x")},
		{Path: "keep.txt", Content: []byte("kept")},
		{Path: "a/..", Content: []byte("x")},
		{Path: "", Content: []byte("x")},
		{Path: "./", Content: []byte("x")},
	})
	require.NoError(t, err)

	files := testutil.ReadZip(t, archive)
	require.Len(t, files, 1)
	assert.Equal(t, "keep.txt", files[0].Name)
	assert.Equal(t, []byte("kept"), files[0].Content)

	end := testutil.ParseEndRecord(t, archive)
	assert.Equal(t, uint16(1), end.TotalEntries)
	assert.Equal(t, uint32(0), testutil.CentralOffsets(t, archive)[0])
}

func TestBuildStrictPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []Entry
		wantErr error
	}{
		{"empty path", []Entry{{Path: ""}}, ErrInvalidPath},
		{"climbs to empty", []Entry{{Path: "a/.."}}, ErrInvalidPath},
		{"traversal", []Entry{{Path: "../../secret", Content: []byte("x")}}, ErrInvalidPath},
		{"backslash traversal", []Entry{{Path: `..\evil.txt`}}, ErrInvalidPath},
		{"duplicate", []Entry{{Path: "a.txt"}, {Path: "/a.txt"}}, ErrDuplicatePath},
		{"duplicate after clean", []Entry{{Path: "x/y"}, {Path: "x/z/../y"}}, ErrDuplicatePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			archive, err := Build(tt.entries, WithStrictPaths())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, archive)
		})
	}

	archive, err := Build(twoFiles(), WithStrictPaths())
	require.NoError(t, err)
	assert.Len(t, testutil.ReadZip(t, archive), 2)
}

func TestBuildDefaultKeepsTraversalRemainder(t *testing.T) {
	t.Parallel()

	archive, err := Build([]Entry{{Path: "../../secret", Content: []byte("x")}})
	require.NoError(t, err)

	files := testutil.ReadZip(t, archive)
	require.Len(t, files, 1)
	assert.Equal(t, "secret", files[0].Name)
}

func TestBuildMaxEntries(t *testing.T) {
	t.Parallel()

	entries := []Entry{{Path: "a"}, {Path: "b"}, {Path: ".."}, {Path: "c"}}

	_, err := Build(entries, WithMaxEntries(2))
	require.ErrorIs(t, err, ErrTooManyEntries)

	archive, err := Build(entries, WithMaxEntries(3))
	require.NoError(t, err)
	assert.Len(t, testutil.ReadZip(t, archive), 3)
}

func TestBuildNameTooLong(t *testing.T) {
	t.Parallel()

	_, err := Build([]Entry{{Path: strings.Repeat("n", 1<<16)}})
	require.ErrorIs(t, err, ErrSizeOverflow)
}

func TestBuildDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	content := []byte("original")
	entries := []Entry{{Path: `..\x\y.txt`, Content: content}}
	_, err := Build(entries)
	require.NoError(t, err)
	assert.Equal(t, `..\x\y.txt`, entries[0].Path)
	assert.Equal(t, []byte("original"), content)
}

func TestBuildConcurrent(t *testing.T) {
	t.Parallel()

	want, err := Build(twoFiles())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = Build(twoFiles())
		}()
	}
	wg.Wait()
	for i, got := range results {
		assert.Equal(t, want, got, "goroutine %d", i)
	}
}

func TestBuildStrings(t *testing.T) {
	t.Parallel()

	archive, err := BuildStrings(map[string]string{
		"z.txt":     "last",
		"a.txt":     "hi",
		"dir/b.txt": "yo",
	})
	require.NoError(t, err)

	files := testutil.ReadZip(t, archive)
	require.Len(t, files, 3)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, "dir/b.txt", files[1].Name)
	assert.Equal(t, "z.txt", files[2].Name)
	assert.Equal(t, []byte("last"), files[2].Content)
}

func TestBuildLogsDroppedEntries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Build([]Entry{{Path: "../.."}, {Path: "ok.txt"}}, WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "dropped entry")
	assert.Contains(t, out, "archive built")
	assert.Contains(t, out, "dropped_count=1")
}

func TestPlanMatchesBuild(t *testing.T) {
	t.Parallel()

	entries := append(twoFiles(), Entry{Path: ".."}, Entry{Path: "c/d.bin", Content: make([]byte, 1000)})

	l, err := Plan(entries)
	require.NoError(t, err)
	archive, err := Build(entries)
	require.NoError(t, err)

	assert.Equal(t, len(archive), l.Size)
	assert.Equal(t, 1, l.Dropped)
	require.Len(t, l.Entries, 3)
	assert.Equal(t, []int{0, 1, 3}, []int{l.Entries[0].Source, l.Entries[1].Source, l.Entries[2].Source})
	assert.Equal(t, uint32(0xd8932aac), l.Entries[0].CRC32)

	offsets := testutil.CentralOffsets(t, archive)
	localTotal, centralTotal := 0, 0
	for i, e := range l.Entries {
		assert.Equal(t, offsets[i], e.Offset)
		localTotal += e.LocalLen()
		centralTotal += e.CentralLen()
	}
	assert.Equal(t, int(l.CentralDirectoryOffset), localTotal)
	assert.Equal(t, int(l.CentralDirectorySize), centralTotal)
	end := testutil.ParseEndRecord(t, archive)
	assert.Equal(t, end.CentralDirectoryOffset, l.CentralDirectoryOffset)
	assert.Equal(t, end.CentralDirectorySize, l.CentralDirectorySize)
}

package sonarcache_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/sonarcache"
	"github.com/scanbridge/scanbridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

var sample = []domain.CacheEntry{
	{Key: "src/App/Program.cs", Hash: []byte{0x01, 0x02, 0x03}},
	{Key: "src/Lib/Café.cs", Hash: bytes.Repeat([]byte{0xAB}, 32)},
}

func TestDecode_PlainAndCompressed(t *testing.T) {
	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, sonarcache.Encode(&buf, sample, compress))

		got, err := sonarcache.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, sample, got, "compress=%v", compress)
	}
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	var msg []byte
	msg = protowire.AppendTag(msg, 7, protowire.VarintType)
	msg = protowire.AppendVarint(msg, 42)
	msg = protowire.AppendTag(msg, 1, protowire.BytesType)
	msg = protowire.AppendString(msg, "a.cs")
	msg = protowire.AppendTag(msg, 2, protowire.BytesType)
	msg = protowire.AppendBytes(msg, []byte{9})
	stream := protowire.AppendBytes(nil, msg)

	got, err := sonarcache.Decode(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, []domain.CacheEntry{{Key: "a.cs", Hash: []byte{9}}}, got)
}

func TestDecode_EmptyAndTruncated(t *testing.T) {
	got, err := sonarcache.Decode(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, got)

	var buf bytes.Buffer
	require.NoError(t, sonarcache.Encode(&buf, sample, false))
	truncated := buf.Bytes()[:buf.Len()-3]
	_, err = sonarcache.Decode(bytes.NewReader(truncated))
	assert.Error(t, err)
}

func TestHTTPSource_Entries(t *testing.T) {
	var gotQuery, gotAuth, gotEncoding string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analysis_cache/get", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotEncoding = r.Header.Get("Accept-Encoding")
		w.Header().Set("Content-Encoding", "gzip")
		assert.NoError(t, sonarcache.Encode(w, sample, true))
	}))
	defer srv.Close()

	src := sonarcache.NewHTTPSource(srv.Client(), srv.URL+"/", "my-key", "main", "s3cr3t")
	got, err := src.Entries(context.Background())

	require.NoError(t, err)
	assert.Equal(t, sample, got)
	assert.Equal(t, "branch=main&project=my-key", gotQuery)
	assert.Equal(t, "Bearer s3cr3t", gotAuth)
	assert.Equal(t, "gzip", gotEncoding)
}

func TestHTTPSource_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	got, err := sonarcache.NewHTTPSource(nil, srv.URL, "k", "", "").Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHTTPSource_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := sonarcache.NewHTTPSource(nil, srv.URL, "k", "", "").Entries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestFileSource_SaveAndEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "cache.bin")
	src := sonarcache.NewFileSource(path)

	require.NoError(t, src.Save(sample))
	got, err := src.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestFileSource_Missing(t *testing.T) {
	_, err := sonarcache.NewFileSource(filepath.Join(t.TempDir(), "none")).Entries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestSourceFor(t *testing.T) {
	base := domain.AnalysisConfig{ProjectKey: "k", ServerURL: "https://sonar.example.com"}

	withBranch := base
	withBranch.PullRequest.BaseBranch = "main"
	src, err := sonarcache.SourceFor(withBranch, "", "tok")
	require.NoError(t, err)
	assert.IsType(t, &sonarcache.HTTPSource{}, src)

	withFile := withBranch
	withFile.PullRequest.CacheFile = "/tmp/cache.bin"
	src, err = sonarcache.SourceFor(withFile, "", "")
	require.NoError(t, err)
	assert.IsType(t, &sonarcache.FileSource{}, src)

	src, err = sonarcache.SourceFor(withBranch, "/tmp/other.bin", "")
	require.NoError(t, err)
	assert.IsType(t, &sonarcache.FileSource{}, src, "an explicit snapshot wins")

	_, err = sonarcache.SourceFor(base, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_branch")

	_, err = sonarcache.SourceFor(domain.AnalysisConfig{ProjectKey: "k"}, "", "")
	assert.ErrorIs(t, err, sonarcache.ErrNoSource)
}

func TestRecorder_KeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bin")
	require.NoError(t, sonarcache.NewFileSource(path).Save(sample))

	rec := sonarcache.NewRecorder(sonarcache.NewFileSource(path))
	assert.Empty(t, rec.Recorded())
	got, err := rec.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, got)
	assert.Equal(t, sample, rec.Recorded())
}

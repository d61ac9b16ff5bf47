package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sod/glove/internal/classifier"
	"github.com/go-sod/glove/internal/classifier/artifact"
	"github.com/go-sod/glove/internal/predict"
	"github.com/go-sod/glove/internal/vocabulary"
)

const dataset = `f1,f2,f3,label
0,0,0,0
0,1,0,0
1,0,0,0
10,10,10,1
10,11,10,1
11,10,10,1
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func packModel(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "dataset.csv")
	require.NoError(t, ioutil.WriteFile(src, []byte(dataset), 0o644))
	dst := filepath.Join(dir, "model.xdr")

	out, err := execute(t, "pack", src, dst, "--k", "3", "--distance", "manhattan")
	require.NoError(t, err)
	assert.Contains(t, out, "packed 6 samples with 3 values")
	return dst
}

func TestPack(t *testing.T) {
	path := packModel(t)

	model, err := artifact.ReadFile(path)
	require.NoError(t, err)
	assert.EqualValues(t, 3, model.K)
	assert.Equal(t, "MANHATTAN", model.Distance)
	assert.EqualValues(t, 3, model.Dimensions)
	assert.Len(t, model.Samples, 6)
}

func TestPack_UnknownDistance(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dataset.csv")
	require.NoError(t, ioutil.WriteFile(src, []byte(dataset), 0o644))

	_, err := execute(t, "pack", src, filepath.Join(dir, "model.xdr"), "--distance", "cosine")
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	model := packModel(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "single frame",
			args: []string{"classify", "--model", model, "10,10,11"},
			want: "1\thow are you\n",
		},
		{
			name: "separate values",
			args: []string{"classify", "--model", model, "0", "0", "1"},
			want: "0\thello\n",
		},
		{
			name: "wifi delimiter",
			args: []string{"classify", "--model", model, "--delimiter", "-", "0-1-1"},
			want: "0\thello\n",
		},
		{
			name: "brute search",
			args: []string{"classify", "--model", model, "--alg", "brute", "11,11,11"},
			want: "1\thow are you\n",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestClassify_Errors(t *testing.T) {
	model := packModel(t)

	_, err := execute(t, "classify", "--model", model, "1,2")
	assert.Error(t, err, "arity mismatch")

	_, err = execute(t, "classify", "--model", model, "1,x,2")
	assert.Error(t, err, "not a number")

	_, err = execute(t, "classify", "--model", filepath.Join(t.TempDir(), "missing.xdr"), "1,2,3")
	assert.Error(t, err, "missing model")
}

func TestClassify_Dump(t *testing.T) {
	model := packModel(t)

	out, err := execute(t, "classify", "--model", model, "--dump", "10,10,10")
	require.NoError(t, err)
	assert.Contains(t, out, "1\thow are you\n")
	assert.Contains(t, out, "reading.Reading")
}

func TestClassify_Remote(t *testing.T) {
	cls, err := classifier.Load(context.Background(), &classifier.Config{ModelPath: packModel(t), Alg: classifier.AlgTypeKDTree})
	require.NoError(t, err)
	h, err := predict.NewHandler(&predict.Config{RequestTimeout: time.Second, MaxDataItemsLen: 1}, cls, vocabulary.Default())
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	out, err := execute(t, "classify", "--addr", addr, "10,11,10")
	require.NoError(t, err)
	assert.Equal(t, "1\thow are you\n", out)

	_, err = execute(t, "classify", "--addr", addr, "1,2")
	assert.Error(t, err, "rejected by the service")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "glove v0.0.0\n", out)
}

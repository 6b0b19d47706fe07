package metrics

import (
	"context"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.DocsIndexedTotal.Add(3)
	m.FilesSkippedTotal.WithLabelValues("language").Inc()
	m.CorpusDocuments.Set(3)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.DocsIndexedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesSkippedTotal.WithLabelValues("language")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "docs_indexed_total")
	assert.Contains(t, names, "corpus_documents")
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestStartServerRejectsBusyPort(t *testing.T) {
	shutdown, err := StartServer("127.0.0.1", 0)
	require.NoError(t, err)
	defer shutdown(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	_, err = StartServer("127.0.0.1", port)
	assert.Error(t, err)
}

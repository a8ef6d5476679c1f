package rangedl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brindlecore/rangedl/internal/testsupport"
)

func TestSinkWriterWriteAtUpdatesOffset(t *testing.T) {
	sink := testsupport.NewMemSink()
	var received int
	sw := newSinkWriter(sink, nil, true, func(n int) { received += n })

	r := newDownloadRange(1000, 1999, 0, false)

	require.NoError(t, sw.writeAt(1000, []byte("hello"), r))
	require.Equal(t, int64(5), r.CurrentOffset())
	require.Equal(t, 5, received)
	require.False(t, r.IsDone())

	require.NoError(t, sw.writeAt(1005, []byte("world"), r))
	require.Equal(t, int64(10), r.CurrentOffset())
	require.Equal(t, 10, received)

	require.Equal(t, "helloworld", string(sink.Bytes()[1000:1010]))
}

func TestSinkWriterMarkDone(t *testing.T) {
	sink := testsupport.NewMemSink()
	sw := newSinkWriter(sink, nil, true, nil)
	r := newDownloadRange(0, 9, 10, false)

	require.False(t, r.IsDone())
	sw.markDone(r)
	require.True(t, r.IsDone())
}

func TestSinkWriterLazyOpenFailsWithoutOpener(t *testing.T) {
	sw := newSinkWriter(nil, nil, true, nil)
	r := newDownloadRange(0, 9, 0, false)

	err := sw.writeAt(0, []byte("x"), r)
	require.ErrorIs(t, err, ErrSinkUnavailable)
}

func TestSinkWriterLazyOpenUsesOpener(t *testing.T) {
	opened := testsupport.NewMemSink()
	sw := newSinkWriter(nil, func() (Sink, error) { return opened, nil }, true, nil)
	r := newDownloadRange(0, 9, 0, false)

	require.NoError(t, sw.writeAt(0, []byte("abc"), r))
	require.Equal(t, "abc", string(opened.Bytes()))
}

func TestSinkWriterFinalizeDisposesWhenAutoDispose(t *testing.T) {
	sink := testsupport.NewMemSink()
	sw := newSinkWriter(sink, nil, true, nil)

	require.NoError(t, sw.finalize())
	require.True(t, sink.Closed)
}

func TestSinkWriterFinalizeKeepsSinkOpenWithoutAutoDispose(t *testing.T) {
	sink := testsupport.NewMemSink()
	sw := newSinkWriter(sink, nil, false, nil)

	require.NoError(t, sw.finalize())
	require.False(t, sink.Closed)
}

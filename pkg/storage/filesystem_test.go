package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoragePutOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), 1024)
	require.NoError(t, err)

	n, err := store.Put("proposals/p-1/doc.pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	f, err := store.Open("proposals/p-1/doc.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, "hello", string(body))

	require.NoError(t, store.Delete("proposals/p-1/doc.pdf"))
	require.NoError(t, store.Delete("proposals/p-1/doc.pdf"))
}

func TestLocalStorageRejectsOversizeAndTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), 4)
	require.NoError(t, err)

	_, err = store.Put("big.bin", strings.NewReader("too large"))
	require.ErrorIs(t, err, ErrTooLarge)
	_, err = store.Open("big.bin")
	require.Error(t, err)

	_, err = store.Put("../escape.txt", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrInvalidKey)
}

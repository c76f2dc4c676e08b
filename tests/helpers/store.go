// Package helpers holds fixtures shared by package tests.
package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	store "github.com/yfuks/avahost-tech-test/internal/repository"
)

// NewTestSQLiteStore opens a private in-memory store, migrated and closed
// with the test.
func NewTestSQLiteStore(t testing.TB) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "failed to create sqlite store")
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

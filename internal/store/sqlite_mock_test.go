package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// TestSQLiteStoreUpsertPropagatesDatabaseError drives the store through a
// mocked database/sql driver to exercise the failure path without needing
// a real corrupted database file — mirrors haasonsaas-nexus's
// internal/jobs/cockroach_test.go setupMockDB pattern.
func TestSQLiteStoreUpsertPropagatesDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, created_at, updated_at, content, archived, title").
		WillReturnError(errors.New("no rows"))
	mock.ExpectExec("INSERT INTO conversations").
		WillReturnError(errors.New("disk full"))

	s := NewSQLiteStoreFromDB(db)
	_, err = s.Upsert(context.Background(), sampleContext(), nil)
	if err == nil {
		t.Fatal("expected Upsert() to propagate the mocked database error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

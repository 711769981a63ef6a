package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestResolveKnownToken(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, time.Hour)

	mock.ExpectGet("session:tok-1").SetVal("owner-1")

	owner, err := store.Resolve(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if owner != "owner-1" {
		t.Fatalf("owner = %q, want owner-1", owner)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, time.Hour)

	mock.ExpectGet("session:missing").RedisNil()

	_, err := store.Resolve(context.Background(), "missing")
	if !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("error = %v, want ErrUnknownSession", err)
	}
}

func TestResolveTransportFailure(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, time.Hour)

	mock.ExpectGet("session:tok-1").SetErr(errors.New("connection refused"))

	_, err := store.Resolve(context.Background(), "tok-1")
	if err == nil || errors.Is(err, ErrUnknownSession) {
		t.Fatalf("error = %v, want wrapped transport error", err)
	}
}

package health

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type Service struct {
	dbRepo *Repository
	rdb    *redis.Client
	broker *amqp.Connection
}

// NewService wires the health probes. rdb and broker may be nil when
// the corresponding collaborator is disabled.
func NewService(dbRepo *Repository, rdb *redis.Client, broker *amqp.Connection) *Service {
	return &Service{dbRepo: dbRepo, rdb: rdb, broker: broker}
}

func (s *Service) CheckHealth(ctx context.Context) map[string]string {
	result := make(map[string]string)

	if err := s.dbRepo.Ping(); err != nil {
		result["database"] = "error"
	} else {
		result["database"] = "ok"
	}

	if s.rdb == nil {
		result["redis"] = "disabled"
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.rdb.Ping(pingCtx).Err(); err != nil {
			result["redis"] = "error"
		} else {
			result["redis"] = "ok"
		}
	}

	switch {
	case s.broker == nil:
		result["broker"] = "disabled"
	case s.broker.IsClosed():
		result["broker"] = "error"
	default:
		result["broker"] = "ok"
	}

	return result
}

// Package notify composes the customer-facing status message for a
// ticket and hands it to the outbound messaging queue. Delivery is
// fire-and-forget: no confirmation, no retry.
package notify

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Digiaroficial/digi-reparaciones-app/common"
)

// Queue is the outbound queue drained by the WhatsApp bridge.
const Queue = "notificaciones"

// Compose renders the message sent to the client. repuestoNombre is
// empty when the ticket has no part or the part was deleted after the
// ticket was created.
func Compose(t common.Ticket, repuestoNombre string) string {
	suffix := ""
	if repuestoNombre != "" {
		suffix = fmt.Sprintf(" (Repuesto: %s)", repuestoNombre)
	}
	return fmt.Sprintf("Hola %s, tu dispositivo %s tiene el siguiente estado: %s.%s ID de ticket: %s",
		t.Cliente, t.Dispositivo, t.Estado, suffix, t.ID)
}

// Unavailable stands in for the publisher when no broker is
// configured; every send fails fast.
type Unavailable struct{}

func (Unavailable) Send(context.Context, string) error {
	return fmt.Errorf("notification dispatch disabled: no broker configured")
}

// Publisher pushes composed messages onto the broker.
type Publisher struct {
	conn *amqp.Connection
}

func NewPublisher(conn *amqp.Connection) *Publisher {
	return &Publisher{conn: conn}
}

// Send publishes one message. A fresh channel per publish keeps the
// connection usable after broker-side channel errors.
func (p *Publisher) Send(ctx context.Context, message string) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(Queue, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", q.Name, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        []byte(message),
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

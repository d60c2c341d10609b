package notify

import (
	"context"
	"fmt"

	"github.com/Raja-karthikeya-137/ticketing-system/internal/kafka"
)

// SlipPrinter renders counter slips for issuance and booking events. Stands
// in for the thermal-printer integration at the counter.
type SlipPrinter struct{}

func NewSlipPrinter() *SlipPrinter {
	return &SlipPrinter{}
}

func (p *SlipPrinter) Print(ctx context.Context, event kafka.CounterEvent) error {
	switch event.Type {
	case kafka.EventPassIssued:
		fmt.Printf("pass %s issued to %s at counter %s\n", event.PassID, event.Phone, event.Counter)
	case kafka.EventTicketBooked:
		fmt.Printf("ticket %s -> %s (%s %.2f) booked on pass %s\n", event.Source, event.Destination, event.PaymentType, event.Amount, event.PassID)
	default:
		fmt.Printf("unknown counter event %q for pass %s\n", event.Type, event.PassID)
	}
	return nil
}

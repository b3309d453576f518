package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"github.com/shahanursiam/sampletrack/config"
	"github.com/shahanursiam/sampletrack/internal/models"
)

// MovementEvent is the payload published for each audit trail entry so that
// downstream consumers (label printers, reporting) see stock changes.
type MovementEvent struct {
	ID             string                `json:"id"`
	SampleID       string                `json:"sample_id"`
	Action         models.MovementAction `json:"action"`
	FromLocationID string                `json:"from_location_id,omitempty"`
	ToLocationID   string                `json:"to_location_id,omitempty"`
	PerformedByID  string                `json:"performed_by_id"`
	Quantity       *int                  `json:"quantity,omitempty"`
	Comments       string                `json:"comments,omitempty"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// EventFromLog builds the published event for a movement log entry.
func EventFromLog(entry *models.MovementLog) MovementEvent {
	ev := MovementEvent{
		ID:            entry.ID.String(),
		SampleID:      entry.SampleID.String(),
		Action:        entry.Action,
		PerformedByID: entry.PerformedByID.String(),
		Quantity:      entry.Quantity,
		Comments:      entry.Comments,
		OccurredAt:    entry.CreatedAt,
	}
	if entry.FromLocationID != nil {
		ev.FromLocationID = entry.FromLocationID.String()
	}
	if entry.ToLocationID != nil {
		ev.ToLocationID = entry.ToLocationID.String()
	}
	return ev
}

// ServiceBusClient is an interface for Azure Service Bus operations
type ServiceBusClient interface {
	SendMessage(ctx context.Context, body interface{}) error
	Close() error
}

// serviceBusClient implements the ServiceBusClient interface
type serviceBusClient struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// NewServiceBusClient creates a new Azure Service Bus client
func NewServiceBusClient(cfg config.AzureConfig) (ServiceBusClient, error) {
	if cfg.QueueConnStr == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	// Create the Service Bus client
	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	// Create a sender for the queue
	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusClient{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// SendMessage sends a message to the Service Bus queue
func (s *serviceBusClient) SendMessage(ctx context.Context, body interface{}) error {
	// Convert the body to JSON
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message body: %w", err)
	}

	// Create the message
	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"source": "sampletrack",
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	// Send the message
	return s.sender.SendMessage(ctx, msg, nil)
}

// Close closes the Service Bus client
func (s *serviceBusClient) Close() error {
	// Close the sender
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	// Close the client
	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}

package mqtt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/mqtt"
	"github.com/autopeer-io/rover/pkg/mqtt/topic"
)

// ExampleClient shows the lifecycle used by the rover agent: connect with a
// Last Will, subscribe to the intent topic and publish a result.
func ExampleClient() {
	topics := topic.NewBuilder("rover/v1")

	cfg := &mqtt.ClientConfig{
		BrokerURL:         "tcp://localhost:1883",
		ClientID:          "rover-001",
		KeepAlive:         60,
		ConnectTimeout:    5 * time.Second,
		ReconnectInterval: 2 * time.Second,
		CleanStart:        true,
		WillTopic:         topics.Build("online", "rover-001"),
		WillPayload:       []byte(`{"online":false}`),
		WillQoS:           1,
		WillRetain:        true,
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "Failed to create MQTT client")
		return
	}

	// Start returns immediately; the connection is established in the background.
	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Error(err, "Failed to start MQTT client")
		return
	}

	onIntent := func(ctx context.Context, topic string, payload []byte) {
		fmt.Printf("intent on %s: %s\n", topic, payload)
	}
	if err := client.Subscribe(ctx, topics.Build("intent", "rover-001"), 1, onIntent); err != nil {
		log.Error(err, "Failed to subscribe")
	}

	if err := client.AwaitConnection(ctx); err != nil {
		log.Error(err, "Connection timed out")
		return
	}

	result := []byte(`{"action_id":"a1","success":true,"message":"OK"}`)
	if err := client.Publish(ctx, topics.Build("result", "rover-001"), 1, false, result); err != nil {
		log.Error(err, "Failed to publish result")
	}

	client.Disconnect(ctx)
}

// Package mqtt provides MQTT client connectivity for isy-bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge publishes classified entity state and control events over
// MQTT and accepts raw controller commands back, so any MQTT consumer
// (a home-automation platform, a dashboard, plain mosquitto_sub) can
// observe and drive the controller without speaking its REST/SOAP
// dialect.
//
//	ISY-994 controller ↔ isy-bridge ↔ MQTT Broker ↔ Consumers
//
// Topic scheme (prefix configurable, default "isy"):
//
//	isy/status                                retained availability (online/offline)
//	isy/entity/{category}/{address}/state     retained entity state JSON
//	isy/event/control                         control event notifications
//	isy/command/{address}                     inbound raw commands
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to inbound entity commands
//	err = client.Subscribe(client.Topics().AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish retained entity state
//	topic := client.Topics().EntityState("light", "11 22 33 1")
//	client.PublishRetained(topic, []byte(`{"value":255}`))
package mqtt

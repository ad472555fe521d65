// Package mqtt provides MQTT client connectivity for Aurora Core.
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
// Aurora uses MQTT as its outward-facing bus: the retained device-tree
// projection, broadcast notes, and command acknowledgments are published
// here, and inbound vector commands arrive here. The broker decouples the
// Core from its consumers (dashboards, automation, companion services).
//
//	Aurora Core ↔ MQTT Broker ↔ Consumers
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
//	// Subscribe to every device vector
//	err = client.Subscribe("aurora/state/+/+", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a command
//	topic := mqtt.Topics{}.Command("CCD Simulator", "CCD_EXPOSURE")
//	client.Publish(topic, []byte(`{"command":"set","values":{"CCD_EXPOSURE_VALUE":"2"}}`), 1, false)
package mqtt

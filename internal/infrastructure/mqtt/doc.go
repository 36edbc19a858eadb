// Package mqtt connects Tunnels processes to an MQTT broker.
//
// MQTT is the alternate frame transport. With transport.kind set to
// "mqtt" the producer publishes packed frames on the configured topic and
// renderers subscribe through the broker instead of dialling the
// producer's ZeroMQ socket:
//
//	producer -> broker -> renderers
//
// Frames travel at QoS 0 and are never retained. Each process also keeps
// a retained presence message under tunnels/system/status/<client-id>,
// replaced by the broker's last will if the process dies.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	for _, filter := range mqtt.Topics{}.FrameFilters("tunnels") {
//	    if err := client.Subscribe(filter, 0, handle); err != nil {
//	        return err
//	    }
//	}
package mqtt

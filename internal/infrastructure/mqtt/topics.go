package mqtt

// TopicStatusPrefix is where each process keeps its retained presence
// message, one subtopic per client ID.
const TopicStatusPrefix = "tunnels/system/status"

// Topics builds Tunnels MQTT topic names. Frame topics come from
// transport.topic; only status topics are fixed.
type Topics struct{}

// ClientStatus returns the presence topic for one client,
// e.g. tunnels/system/status/render-3f2a9c1d.
func (Topics) ClientStatus(clientID string) string {
	return TopicStatusPrefix + "/" + clientID
}

// FrameFilters returns the filters that together match the frame topic
// and everything below it. MQTT has no byte-prefix match, so both the
// exact topic and its subtree are needed.
func (Topics) FrameFilters(topic string) []string {
	return []string{topic, topic + "/#"}
}

package pipeline

import (
	"github.com/soypat/natiu-mqtt"
)

// MQTTSink publishes every finished chunk (one compressed stream, or
// one uncompressed line) to a fixed topic over an already-connected
// natiu-mqtt client. natiu-mqtt is built for constrained firmware
// targets: no internal goroutines, no background buffering, callers
// drive the whole read/write cycle themselves, which matches the
// pipeline's own cooperative, no-hidden-allocation run loop.
type MQTTSink struct {
	client *mqtt.Client
	topic  string
	flags  mqtt.PublishFlags
}

// NewMQTTSink wraps an already-connected client. qos0 publishes are the
// default since a dropped preview frame is never worth retransmitting.
func NewMQTTSink(client *mqtt.Client, topic string) *MQTTSink {
	return &MQTTSink{client: client, topic: topic}
}

// WithQoS1 switches the sink to publish at QoS 1 (at-least-once), for a
// topic where losing a chunk (e.g. a JPEG trailer) would corrupt every
// frame after it.
func (s *MQTTSink) WithQoS1() *MQTTSink {
	s.flags = s.flags.WithQoS(mqtt.QoS1)
	return s
}

// Write implements pipeline.Sink.
func (s *MQTTSink) Write(p []byte) error {
	varTopic, err := mqtt.NewVariablesTopic(s.topic)
	if err != nil {
		return err
	}
	return s.client.PublishPayload(s.flags, varTopic, p)
}

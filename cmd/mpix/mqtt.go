package main

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/pipeline"
)

// connectOpts builds the client options shared by mqttread/mqttwrite:
// a short-lived connection, one operation, then disconnect, rather than
// the long-lived subscriber paho's API is more commonly used for.
func connectOpts(broker string) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("mpix-%d", time.Now().UnixNano())).
		SetConnectTimeout(5 * time.Second)
}

// doMQTTRead subscribes just long enough to receive one retained
// payload from topic and treats it as a raw or QOI-header-carrying
// frame, exactly like doRead's non-file path.
func doMQTTRead(args []string) ([]byte, int, format.Format, error) {
	if len(args) < 2 {
		return nil, 0, format.Format{}, fmt.Errorf("expected <broker> <topic> [<width> <format>]")
	}
	broker, topic := args[0], args[1]
	client := mqtt.NewClient(connectOpts(broker))
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, 0, format.Format{}, tok.Error()
	}
	defer client.Disconnect(250)

	payload := make(chan []byte, 1)
	tok := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case payload <- append([]byte(nil), msg.Payload()...):
		default:
		}
	})
	if tok.Wait() && tok.Error() != nil {
		return nil, 0, format.Format{}, tok.Error()
	}

	var buf []byte
	select {
	case buf = <-payload:
	case <-time.After(10 * time.Second):
		return nil, 0, format.Format{}, fmt.Errorf("timed out waiting for a message on %s", topic)
	}

	if len(args) >= 4 {
		fmtDesc, err := rawFormat(args[2], args[3], len(buf))
		if err != nil {
			return nil, 0, format.Format{}, err
		}
		return buf, len(buf), fmtDesc, nil
	}
	if fc, ok := format.Sniff(buf); ok {
		w, h, err := sniffQOIDims(fc, buf)
		if err != nil {
			return nil, 0, format.Format{}, err
		}
		return buf, len(buf), format.Format{FourCC: fc, Width: w, Height: h}, nil
	}
	return nil, 0, format.Format{}, fmt.Errorf("message on %s: unknown format, pass <width> <format>", topic)
}

// mqttWriteSink publishes every accumulated flush as one retained
// message; it dials the broker once, at flush time, rather than
// holding a connection open across the whole pipeline run.
type mqttWriteSink struct {
	broker, topic string
	buf           []byte
}

func (s *mqttWriteSink) Write(p []byte) error {
	s.buf = append(s.buf, p...)
	return nil
}

func (s *mqttWriteSink) flush() error {
	client := mqtt.NewClient(connectOpts(s.broker))
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return tok.Error()
	}
	defer client.Disconnect(250)
	tok := client.Publish(s.topic, 0, true, s.buf)
	tok.Wait()
	return tok.Error()
}

func addMQTTWriteSink(img *pipeline.Image, args []string) (flush func() error, err error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expected <broker> <topic>")
	}
	if err := img.Add(pipeline.KindCallback, nil); err != nil {
		return nil, err
	}
	sink := &mqttWriteSink{broker: args[0], topic: args[1]}
	if err := img.SetSink(sink); err != nil {
		return nil, err
	}
	return sink.flush, nil
}

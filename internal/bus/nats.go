package bus

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/vacationgenius/dealwatch/internal/logger"
)

// NewNATSPublisher builds a core-NATS Watermill publisher. Core NATS writes
// are non-blocking; timeout bounds connection establishment so a slow broker
// cannot stall the pipeline.
func NewNATSPublisher(url string, timeout time.Duration) (message.Publisher, error) {
	opts := []natsgo.Option{
		natsgo.Timeout(timeout),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected: %v", err)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         url,
		NatsOptions: opts,
		Marshaler:   &wmnats.NATSMarshaler{},
		JetStream:   wmnats.JetStreamConfig{Disabled: true},
	}, newLoggerAdapter())
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	return pub, nil
}

// loggerAdapter routes Watermill's internal logging through the package logger.
type loggerAdapter struct {
	fields watermill.LogFields
}

func newLoggerAdapter() watermill.LoggerAdapter {
	return &loggerAdapter{}
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	logger.Error("watermill: %s: %v %v", msg, err, l.fields.Add(fields))
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	logger.Info("watermill: %s %v", msg, l.fields.Add(fields))
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	logger.Debug("watermill: %s %v", msg, l.fields.Add(fields))
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	logger.Debug("watermill: %s %v", msg, l.fields.Add(fields))
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{fields: l.fields.Add(fields)}
}

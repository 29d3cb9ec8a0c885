package events

import (
	"encoding/json"
	"strings"
	"time"

	"songcatalog/pkg/logger"

	"github.com/nats-io/nats.go"
)

// NATSPublisher forwards events to <subject>.<type>, e.g. songs.song_created.
type NATSPublisher struct {
	Conn    *nats.Conn
	Subject string
}

func ConnectNATS(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("songcatalog"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	logger.Sugar.Infof("Connected to NATS at %s", nc.ConnectedUrl())
	return &NATSPublisher{Conn: nc, Subject: subject}, nil
}

func (p *NATSPublisher) Publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.Sugar.Errorf("Failed to marshal event %s: %v", e.Type, err)
		return
	}
	if err := p.Conn.Publish(SubjectFor(p.Subject, e.Type), data); err != nil {
		logger.Sugar.Errorf("Failed to publish %s to NATS: %v", e.Type, err)
	}
}

func (p *NATSPublisher) Close() {
	if err := p.Conn.Drain(); err != nil {
		p.Conn.Close()
	}
}

func SubjectFor(prefix, eventType string) string {
	return prefix + "." + strings.ToLower(eventType)
}

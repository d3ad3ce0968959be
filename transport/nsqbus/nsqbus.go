// Package nsqbus fans out Exit notifications across nodes: when an actor
// linked to a proxy actor on another node terminates, that termination has
// to reach the remote node somehow, since link.go's own Exit delivery only
// works for actors registered in this process's local registry. Adapted
// from the teacher's infra/nsq package (producer/consumer wrapping
// github.com/nsqio/go-nsq), narrowed from a generic producer/consumer pair
// to a single-topic ExitBus publish/subscribe.
package nsqbus

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log"

	"github.com/nsqio/go-nsq"

	"github.com/phuhao00/actormesh/config"
	"github.com/phuhao00/actormesh/help"
)

// ExitNotice is what crosses the bus when a linked actor terminates on a
// remote node.
type ExitNotice struct {
	ActorID string
	Reason  string
}

// Bus publishes and subscribes to exit notifications over one NSQ topic.
type Bus struct {
	topic    string
	channel  string
	producer *nsq.Producer
	consumer *nsq.Consumer
}

// New connects a Bus's producer the way the teacher's nsqx.NewProducer
// does: try the address list first, fall back to the single address.
func New(cfg config.NSQConfig) (*Bus, error) {
	nsqCfg := nsq.NewConfig()
	var producer *nsq.Producer
	var err error

	if len(cfg.NSQDAddresses) > 0 {
		var tried []string
		for _, addr := range cfg.NSQDAddresses {
			if help.Contains(tried, addr) {
				continue
			}
			tried = append(tried, addr)
			if producer, err = nsq.NewProducer(addr, nsqCfg); err == nil {
				log.Printf("nsqbus: producer connected to %s", addr)
				break
			}
			log.Printf("nsqbus: producer failed to connect to %s: %v", addr, err)
		}
		if producer == nil {
			return nil, fmt.Errorf("nsqbus: failed to connect to any nsqd in %s", help.JoinStrings(tried, ", "))
		}
	} else if cfg.NSQDAddr != "" {
		if producer, err = nsq.NewProducer(cfg.NSQDAddr, nsqCfg); err != nil {
			return nil, fmt.Errorf("nsqbus: connect producer %s: %w", cfg.NSQDAddr, err)
		}
	} else {
		return nil, fmt.Errorf("nsqbus: no nsqd addresses configured")
	}

	topic, channel := cfg.Topic, cfg.Channel
	if topic == "" {
		topic = "actormesh.exit"
	}
	if channel == "" {
		channel = "actormesh"
	}

	return &Bus{topic: topic, channel: channel, producer: producer}, nil
}

// GetName implements runtime.Module.
func (b *Bus) GetName() string { return "nsqbus" }

// OnStart implements runtime.Module; the producer already connected in
// New, so there's nothing left to do but satisfy the interface for
// runtime.Host's uniform startup sequencing.
func (b *Bus) OnStart(ctx context.Context) error { return nil }

// OnStop implements runtime.Module.
func (b *Bus) OnStop(ctx context.Context) error {
	b.Close()
	return nil
}

// Publish announces that actorID exited with reason, for any node with a
// Subscribe running to pick up.
func (b *Bus) Publish(actorID, reason string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ExitNotice{ActorID: actorID, Reason: reason}); err != nil {
		return fmt.Errorf("nsqbus: encode exit notice: %w", err)
	}
	if err := b.producer.Publish(b.topic, buf.Bytes()); err != nil {
		return fmt.Errorf("nsqbus: publish: %w", err)
	}
	return nil
}

// Subscribe starts consuming exit notices, invoking handle for each,
// connecting either directly to nsqdAddr or discovering via
// lookupdHTTPAddrs (mirroring the teacher's nsqx.Consumer helpers).
func (b *Bus) Subscribe(nsqdAddr string, lookupdHTTPAddrs []string, handle func(ExitNotice)) error {
	nsqCfg := nsq.NewConfig()
	consumer, err := nsq.NewConsumer(b.topic, b.channel, nsqCfg)
	if err != nil {
		return fmt.Errorf("nsqbus: new consumer: %w", err)
	}
	consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
		var notice ExitNotice
		if err := gob.NewDecoder(bytes.NewReader(m.Body)).Decode(&notice); err != nil {
			log.Printf("nsqbus: decode exit notice: %v", err)
			return err
		}
		handle(notice)
		return nil
	}))

	if len(lookupdHTTPAddrs) > 0 {
		if err := consumer.ConnectToNSQLookupds(lookupdHTTPAddrs); err != nil {
			return fmt.Errorf("nsqbus: connect to lookupds: %w", err)
		}
	} else if nsqdAddr != "" {
		if err := consumer.ConnectToNSQD(nsqdAddr); err != nil {
			return fmt.Errorf("nsqbus: connect to nsqd %s: %w", nsqdAddr, err)
		}
	} else {
		return fmt.Errorf("nsqbus: no nsqd or nsqlookupd address to subscribe with")
	}

	b.consumer = consumer
	return nil
}

// Close stops the producer and, if running, the consumer.
func (b *Bus) Close() {
	b.producer.Stop()
	if b.consumer != nil {
		b.consumer.Stop()
	}
}

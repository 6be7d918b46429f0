package queue

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// KafkaQueue publishes document events to a kafka topic keyed by document
// id, so the events of one document stay ordered.
type KafkaQueue struct {
	producer *kafka.Producer
	topic    string
	done     chan struct{}
}

var _ DocumentQueue = (*KafkaQueue)(nil)

func NewKafkaQueue(brokers, topic string) (*KafkaQueue, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"client.id":         "redline",
		"acks":              "all",
	})
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}

	q := &KafkaQueue{
		producer: producer,
		topic:    topic,
		done:     make(chan struct{}),
	}
	go q.reportDeliveries()

	return q, nil
}

func (q *KafkaQueue) reportDeliveries() {
	defer close(q.done)
	for ev := range q.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				logrus.Errorf("kafka delivery failed: %v", e.TopicPartition.Error)
			}
		case kafka.Error:
			logrus.Errorf("kafka error: %v", e)
		}
	}
}

func (q *KafkaQueue) Publish(ctx context.Context, event *DocumentEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = q.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &q.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.DocumentID),
		Value:          value,
	}, nil)
	return errors.Wrapf(err, "publish %s", event.Type)
}

func (q *KafkaQueue) Close() error {
	if left := q.producer.Flush(5000); left > 0 {
		logrus.Warnf("kafka: %d events not delivered before close", left)
	}
	q.producer.Close()
	<-q.done
	return nil
}

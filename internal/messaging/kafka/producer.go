package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Producer публикует доменные события маркетплейса в Kafka.
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
	closed   atomic.Bool
}

// NewProducer создает синхронный Kafka producer с включенной идемпотентностью.
func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	// Идемпотентность требует MaxOpenRequests = 1.
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   log.WithField("component", "kafka-producer"),
	}, nil
}

// PublishEvent сериализует событие в JSON и отправляет его в topic.
// Key определяет partition, для событий заказа это ID заказа.
func (p *Producer) PublishEvent(topic string, key string, event interface{}) error {
	return p.PublishEventWithHeaders(topic, key, event, nil)
}

// PublishEventWithHeaders отправляет событие с дополнительными Kafka headers.
// Используется DLQ-публикацией, где контекст сбоя идёт в заголовках.
func (p *Producer) PublishEventWithHeaders(topic, key string, event interface{}, headers map[string]string) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(eventData),
		Timestamp: time.Now(),
	}
	for name, value := range headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(name),
			Value: []byte(value),
		})
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": topic,
			"key":   key,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")

	return nil
}

// Healthy сообщает, доступен ли producer для публикации.
func (p *Producer) Healthy() error {
	if p == nil || p.producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	if p.closed.Load() {
		return errors.New("kafka producer is closed")
	}
	return nil
}

// Close закрывает producer.
func (p *Producer) Close() error {
	p.closed.Store(true)
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

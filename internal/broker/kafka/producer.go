package kafka

import (
	"context"

	"insta-poster/internal/config"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

type ProducerClient struct {
	producer *wbkafka.Producer
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ResultsTopic),
	}
}

func (p *ProducerClient) SendResult(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return p.producer.SendWithRetry(ctx, strategy, key, value)
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}

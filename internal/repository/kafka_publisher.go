package repository

import (
	"context"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	pkgkafka "WalletPnL/pkg/kafka"
	applogger "WalletPnL/pkg/logger"
)

// KafkaSummaryPublisher streams results keyed by wallet so one wallet's runs stay ordered.
type KafkaSummaryPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSummaryPublisher(producer *pkgkafka.Producer, topic string) *KafkaSummaryPublisher {
	return &KafkaSummaryPublisher{producer: producer, topic: topic}
}

func (p *KafkaSummaryPublisher) PublishSummary(ctx context.Context, r *models.AnalysisResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Summary.Wallet), r)
}

// Close is a no-op; the producer is shared with the digest publisher and closed by the app.
func (p *KafkaSummaryPublisher) Close() error {
	return nil
}

// KafkaDigestPublisher ships log collector digests.
type KafkaDigestPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaDigestPublisher(producer *pkgkafka.Producer, topic string) *KafkaDigestPublisher {
	return &KafkaDigestPublisher{producer: producer, topic: topic}
}

func (p *KafkaDigestPublisher) PublishDigest(ctx context.Context, d applogger.Digest) error {
	return p.producer.Publish(ctx, p.topic, []byte(d.Service), d)
}

var (
	_ drepo.SummaryPublisher    = (*KafkaSummaryPublisher)(nil)
	_ applogger.DigestPublisher = (*KafkaDigestPublisher)(nil)
)

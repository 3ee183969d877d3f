package mailer

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/resume-hub/backend/internal/config"
	"github.com/resume-hub/backend/internal/domain"
)

const QueueName = "email_queue"

// Publisher 把邮件消息投递到消息队列，由 cmd/mail 的 worker 消费发送。
type Publisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type AMQPPublisher struct {
	channel *amqp.Channel
	timeout time.Duration
}

func NewAMQPPublisher(cfg *config.Config, channel *amqp.Channel) *AMQPPublisher {
	return &AMQPPublisher{
		channel: channel,
		timeout: time.Duration(cfg.RabbitMQ.PublishTimeout) * time.Second,
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

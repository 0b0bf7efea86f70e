package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"GuardianWatchService/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// GuardianAlert событие для опекуна: у пользователя зафиксирован экстренный статус
type GuardianAlert struct {
	LoginID       string            `json:"login_id"`
	Name          string            `json:"name"`
	GuardName     string            `json:"guard_name,omitempty"`
	GuardPhoneNum string            `json:"guard_phone_num"`
	Status        models.StatusCode `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewGuardianAlert строит событие по пользователю и записи статуса
func NewGuardianAlert(user *models.User, record *models.StatusRecord) GuardianAlert {
	alert := GuardianAlert{
		LoginID:   user.LoginID,
		Name:      user.Name,
		Status:    record.Status,
		Timestamp: record.CreatedAt,
	}
	if user.GuardName != nil {
		alert.GuardName = *user.GuardName
	}
	if user.GuardPhoneNum != nil {
		alert.GuardPhoneNum = *user.GuardPhoneNum
	}
	return alert
}

// Publisher отправляет события опекунам
type Publisher interface {
	Publish(ctx context.Context, alert GuardianAlert) error
}

// NopPublisher используется, когда оповещения отключены
type NopPublisher struct{}

// Publish ничего не делает
func (NopPublisher) Publish(context.Context, GuardianAlert) error {
	return nil
}

// AMQPPublisher публикует события в очередь RabbitMQ.
// Соединение открывается на каждое событие: экстренные статусы редки.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *zap.Logger
}

// NewAMQPPublisher создает издателя для очереди queue
func NewAMQPPublisher(url, queue string, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue, logger: logger}
}

// Publish объявляет durable-очередь и публикует в нее persistent JSON-сообщение
func (p *AMQPPublisher) Publish(ctx context.Context, alert GuardianAlert) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Locale: amqpLocale,
		Dial:   contextDialer(ctx),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("rabbitmq dial: %w (%v)", ctxErr, err)
		}
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Закрытие соединения по контексту прерывает зависшие вызовы брокера
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	msg, err := buildMessage(alert)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	p.logger.Info("Guardian alert published",
		zap.String("queue", p.queue),
		zap.String("login_id", alert.LoginID))
	return nil
}

const (
	amqpLocale = "en_US"
	// dialTimeout ограничивает рукопожатие, если у контекста нет дедлайна
	dialTimeout = 30 * time.Second
)

// contextDialer открывает TCP-соединение в рамках ctx и ставит дедлайн на рукопожатие AMQP.
// Дедлайн снимается библиотекой после установки соединения.
func contextDialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		var dialer net.Dialer
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(dialTimeout)
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func buildMessage(alert GuardianAlert) (amqp.Publishing, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal alert: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         "guardian.alert",
		Body:         body,
	}, nil
}

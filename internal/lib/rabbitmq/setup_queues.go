package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Очередь подтверждений покупок.
const (
	PurchaseQueue      = "notification.purchase"
	PurchaseRoutingKey = "purchase"
)

// NotificationQueues возвращает очереди, которые слушает отправитель уведомлений.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: PurchaseQueue, RoutingKey: PurchaseRoutingKey},
	}
}

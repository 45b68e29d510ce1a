package rabbitmq

import "github.com/magabrotheeeer/recovera/internal/models"

// Exchange обменник уведомлений.
const Exchange = "notifications"

// QueueConfig очередь и ключ, по которому она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueues очереди, которые слушает отправщик писем.
// Ключ маршрутизации совпадает с типом уведомления.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.password_reset", RoutingKey: models.NotificationPasswordReset},
		{QueueName: "notifications.subscription_expired", RoutingKey: models.NotificationSubscriptionExpired},
		{QueueName: "notifications.subscription_expiring", RoutingKey: models.NotificationSubscriptionExpiring},
	}
}

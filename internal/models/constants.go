package models

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusHold       = "hold"
	StatusReturned   = "returned"
)

const (
	PaymentUnpaid  = "unpaid"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
)

const (
	KindEquipment = "equipment"
	KindProduct   = "product"
)

const (
	// DefaultSessionTTL время жизни сессии администратора
	DefaultSessionTTL = 7 * 24 * 60 * 60 // 7 дней в секундах

	// DefaultSessionCookie имя HTTP-cookie с токеном сессии
	DefaultSessionCookie = "session"

	// DefaultMaintenanceInterval период фонового прогона maintenance
	DefaultMaintenanceInterval = 15 * 60 // 15 минут в секундах

	// LoginRateLimitRPS лимит попыток входа с одного адреса
	LoginRateLimitRPS   = 1
	LoginRateLimitBurst = 5

	// LoginAttemptLimit попыток входа на один аккаунт в окне
	// LoginAttemptWindow секунд; счетчик живет в хранилище сессий
	// и в отличие от адресного лимитера переживает рестарт
	LoginAttemptLimit  = 10
	LoginAttemptWindow = 60

	// DefaultBcryptCost стоимость хеширования пароля
	DefaultBcryptCost = 12

	// DefaultListLimit размер страницы для списочных ручек
	DefaultListLimit = 50
)

// ActiveStatuses перечисляет статусы, которые резервируют инвентарь.
var ActiveStatuses = []string{StatusPending, StatusConfirmed, StatusInProgress, StatusHold}

// TerminalStatuses перечисляет конечные статусы брони.
var TerminalStatuses = []string{StatusCompleted, StatusCancelled, StatusReturned}

// allowedTransitions фиксирует монотонный жизненный цикл брони.
// cancelled достижим из любого неконечного статуса и обрабатывается отдельно.
var allowedTransitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusHold},
	StatusConfirmed:  {StatusInProgress, StatusHold},
	StatusHold:       {StatusConfirmed},
	StatusInProgress: {StatusCompleted, StatusReturned},
}

// IsActiveStatus reports whether the status still reserves capacity.
func IsActiveStatus(status string) bool {
	for _, s := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether the status is final.
func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition validates a booking status change against the lifecycle table.
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	if to == StatusCancelled {
		return !IsTerminalStatus(from)
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

package model

// Lifecycle は注文ステータスの遷移ルール。
//
//	pending -> paid -> shipped -> delivered
//	pending -> cancelled
//	paid    -> cancelled （AllowCancelAfterPaidのとき）
//
// delivered / cancelled は終端。
type Lifecycle struct {
	AllowCancelAfterPaid bool
}

func DefaultLifecycle() Lifecycle {
	return Lifecycle{AllowCancelAfterPaid: true}
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// 直接遷移できる次のステータス
func (l Lifecycle) Successors(from OrderStatus) []OrderStatus {
	switch from {
	case OrderStatusPending:
		return []OrderStatus{OrderStatusPaid, OrderStatusCancelled}
	case OrderStatusPaid:
		if l.AllowCancelAfterPaid {
			return []OrderStatus{OrderStatusShipped, OrderStatusCancelled}
		}
		return []OrderStatus{OrderStatusShipped}
	case OrderStatusShipped:
		return []OrderStatus{OrderStatusDelivered}
	}
	return nil
}

func (l Lifecycle) CanTransition(from, to OrderStatus) bool {
	for _, s := range l.Successors(from) {
		if s == to {
			return true
		}
	}
	return false
}

// Transition は from -> to を検証する。
// 終端からはTerminalStateError、それ以外の不正はInvalidTransitionError。
func (l Lifecycle) Transition(from, to OrderStatus) error {
	if from.IsTerminal() {
		return &TerminalStateError{Status: from}
	}
	if !l.CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

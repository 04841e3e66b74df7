package order

import (
	"fmt"
	"sort"
	"sync"
)

// StateTransition 状态转换
type StateTransition struct {
	From Status
	To   Status
}

// StateMachine 订单状态机，按交易所语义约束状态流转。
type StateMachine struct {
	transitions map[StateTransition]bool
	mu          sync.RWMutex
}

// NewStateMachine 创建新的状态机
func NewStateMachine() *StateMachine {
	sm := &StateMachine{
		transitions: make(map[StateTransition]bool),
	}
	sm.initializeTransitions()
	return sm
}

func (sm *StateMachine) initializeTransitions() {
	legal := []StateTransition{
		{StatusNew, StatusPartiallyFilled},
		{StatusNew, StatusFilled},
		{StatusNew, StatusCanceled},
		{StatusNew, StatusRejected},
		{StatusNew, StatusExpired},

		{StatusPartiallyFilled, StatusPartiallyFilled}, // 多次部分成交
		{StatusPartiallyFilled, StatusFilled},
		{StatusPartiallyFilled, StatusCanceled},
		{StatusPartiallyFilled, StatusExpired},

		// 终态不能转换
	}
	for _, t := range legal {
		sm.transitions[t] = true
	}
}

// ValidateTransition 验证状态转换是否合法，相同状态视为幂等。
func (sm *StateMachine) ValidateTransition(from, to Status) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if from == to {
		return nil
	}
	if !sm.transitions[StateTransition{From: from, To: to}] {
		return fmt.Errorf("illegal state transition: %s -> %s (allowed: %v)", from, to, sm.allowedLocked(from))
	}
	return nil
}

// AllowedTransitions 返回当前状态所有合法的目标状态
func (sm *StateMachine) AllowedTransitions(current Status) []Status {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.allowedLocked(current)
}

func (sm *StateMachine) allowedLocked(current Status) []Status {
	allowed := make([]Status, 0)
	for t := range sm.transitions {
		if t.From == current && t.To != current {
			allowed = append(allowed, t.To)
		}
	}
	sort.Slice(allowed, func(i, j int) bool { return allowed[i] < allowed[j] })
	return allowed
}

// CanCancel 判断订单是否可以撤单
func (sm *StateMachine) CanCancel(status Status) bool {
	return status.IsActive()
}

// GetStateDescription 获取状态描述
func GetStateDescription(status Status) string {
	descriptions := map[Status]string{
		StatusNew:             "订单已挂出",
		StatusPartiallyFilled: "订单部分成交",
		StatusFilled:          "订单完全成交",
		StatusCanceled:        "订单已撤销",
		StatusRejected:        "订单被拒绝",
		StatusExpired:         "订单已过期",
	}
	if desc, ok := descriptions[status]; ok {
		return desc
	}
	return "未知状态"
}

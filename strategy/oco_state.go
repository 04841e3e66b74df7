package strategy

import "fmt"

// OCOState OCO 控制器状态。
type OCOState string

const (
	OCOInit             OCOState = "INIT"
	OCOTakeProfitPlaced OCOState = "TP_PLACED"
	OCOStopLossPlaced   OCOState = "SL_PLACED"
	OCOPlaced           OCOState = "PLACED"
	OCOMonitoring       OCOState = "MONITORING"
	OCOTakeProfitFilled OCOState = "TP_FILLED"
	OCOStopLossFilled   OCOState = "SL_FILLED"
	OCOBothFilled       OCOState = "BOTH_FILLED"
	OCOLegRejected      OCOState = "LEG_REJECTED"
	OCOTimeout          OCOState = "TIMEOUT"
	OCOUserStopped      OCOState = "USER_STOPPED"
	OCOPlacementFailed  OCOState = "PLACEMENT_FAILED"
)

// 超时、手动停止或仅下单后可以重新进入监控，腿仍在交易所。
var ocoTransitions = map[OCOState][]OCOState{
	OCOInit:             {OCOTakeProfitPlaced, OCOPlacementFailed, OCOStopLossPlaced},
	OCOTakeProfitPlaced: {OCOStopLossPlaced, OCOPlacementFailed},
	OCOStopLossPlaced:   {OCOMonitoring, OCOPlaced},
	OCOPlaced:           {OCOMonitoring},
	OCOMonitoring:       {OCOTakeProfitFilled, OCOStopLossFilled, OCOBothFilled, OCOLegRejected, OCOTimeout, OCOUserStopped},
	OCOTimeout:          {OCOMonitoring},
	OCOUserStopped:      {OCOMonitoring},
}

// IsTerminal 是否为最终状态（不可再监控）。
func (s OCOState) IsTerminal() bool {
	switch s {
	case OCOTakeProfitFilled, OCOStopLossFilled, OCOBothFilled, OCOLegRejected, OCOPlacementFailed:
		return true
	}
	return false
}

func canTransition(from, to OCOState) bool {
	for _, s := range ocoTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (o *OCO) transition(to OCOState) error {
	if !canTransition(o.state, to) {
		return fmt.Errorf("oco: illegal transition %s -> %s", o.state, to)
	}
	o.state = to
	return nil
}

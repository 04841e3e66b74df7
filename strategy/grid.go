package strategy

import (
	"sort"

	"github.com/shopspring/decimal"

	"futures-algo-go/order"
)

// GridLevel 网格的一个档位，至多挂一个订单。
type GridLevel struct {
	Index    int
	Price    float64
	Side     order.Side
	Quantity float64
	OrderID  string
}

// BuildLadder 在 [lower, upper] 间生成 levels+1 个等距价格，首尾恰为 lower/upper。
// tick>0 时中间价格四舍五入到 tick，舍入后必须仍严格递增。
func BuildLadder(lower, upper float64, levels int, tick float64) ([]float64, error) {
	if err := order.ValidateNamedPrice("lowerPrice", lower); err != nil {
		return nil, err
	}
	if err := order.ValidateNamedPrice("upperPrice", upper); err != nil {
		return nil, err
	}
	if upper <= lower {
		return nil, order.Invalid("upperPrice", upper, "must be above lower price %v", lower)
	}
	if levels < 2 {
		return nil, order.Invalid("numLevels", levels, "must be at least 2")
	}

	lo := decimal.NewFromFloat(lower)
	hi := decimal.NewFromFloat(upper)
	step := hi.Sub(lo).Div(decimal.NewFromInt(int64(levels)))

	ladder := make([]float64, 0, levels+1)
	for i := 0; i <= levels; i++ {
		var p float64
		switch i {
		case 0:
			p = lower
		case levels:
			p = upper
		default:
			p, _ = lo.Add(step.Mul(decimal.NewFromInt(int64(i)))).Float64()
			p = order.RoundToStep(p, tick)
		}
		if i > 0 && p <= ladder[i-1] {
			return nil, order.Invalid("numLevels", levels, "grid step is smaller than tick size %v", tick)
		}
		ladder = append(ladder, p)
	}
	return ladder, nil
}

// GridStep 相邻档位的名义间距。
func GridStep(lower, upper float64, levels int) float64 {
	f, _ := decimal.NewFromFloat(upper).Sub(decimal.NewFromFloat(lower)).
		Div(decimal.NewFromInt(int64(levels))).Float64()
	return f
}

// levelBook 档位索引到挂单的映射，仅由所属控制器访问。
type levelBook struct {
	levels map[int]GridLevel
}

func newLevelBook() *levelBook {
	return &levelBook{levels: make(map[int]GridLevel)}
}

func (b *levelBook) put(l GridLevel) { b.levels[l.Index] = l }

func (b *levelBook) get(idx int) (GridLevel, bool) {
	l, ok := b.levels[idx]
	return l, ok
}

func (b *levelBook) remove(idx int) { delete(b.levels, idx) }

func (b *levelBook) len() int { return len(b.levels) }

// snapshot 按价格从低到高返回拷贝。
func (b *levelBook) snapshot() []GridLevel {
	out := make([]GridLevel, 0, len(b.levels))
	for _, l := range b.levels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

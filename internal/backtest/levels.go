package backtest

// Trade outcome labels assigned by the classifier.
const (
	OutcomeTargetHit = "target_hit"
	OutcomeStopHit   = "stop_hit"
	OutcomeOtherExit = "other_exit"
)

// TradeLevels is the display-ready annotated view of one closed trade:
// the hypothetical stop and target prices derived from the entry, plus the
// outcome label of the actual recorded exit against them.
type TradeLevels struct {
	Trade
	StopPrice   float64
	TargetPrice float64
	Outcome     string
}

// ClassifyTrades annotates each closed trade with stop/target levels computed
// from the entry price and labels the actual exit against them. riskPct is a
// fraction of the entry price (0.02 = 2%) and rewardRatio is the
// reward-to-risk multiple for the target.
//
// This is post-hoc reporting only: it never alters engine behavior, it labels
// trades the ledger already closed.
func ClassifyTrades(trades []Trade, riskPct, rewardRatio float64) []TradeLevels {
	out := make([]TradeLevels, len(trades))
	for i, t := range trades {
		var stop, target float64
		var outcome string
		if t.Side == sideLong {
			stop = t.EntryPrice * (1 - riskPct)
			target = t.EntryPrice * (1 + riskPct*rewardRatio)
			switch {
			case t.ExitPrice >= target:
				outcome = OutcomeTargetHit
			case t.ExitPrice <= stop:
				outcome = OutcomeStopHit
			default:
				outcome = OutcomeOtherExit
			}
		} else {
			stop = t.EntryPrice * (1 + riskPct)
			target = t.EntryPrice * (1 - riskPct*rewardRatio)
			switch {
			case t.ExitPrice <= target:
				outcome = OutcomeTargetHit
			case t.ExitPrice >= stop:
				outcome = OutcomeStopHit
			default:
				outcome = OutcomeOtherExit
			}
		}

		out[i] = TradeLevels{
			Trade:       t,
			StopPrice:   stop,
			TargetPrice: target,
			Outcome:     outcome,
		}
	}
	return out
}

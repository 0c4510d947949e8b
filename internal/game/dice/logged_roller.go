package dice

import "go.uber.org/zap"

// Roller wraps a Source and logs every roll at debug level.
// Roller itself satisfies Source so it can be injected anywhere a Source is.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller over src.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil || logger == nil {
		panic("dice.NewLoggedRoller: src and logger must not be nil")
	}
	return &Roller{src: src, logger: logger}
}

// Intn delegates to the wrapped Source.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

// Pool rolls count dice of the given sides and logs the faces under label.
func (r *Roller) Pool(label string, count, sides int) []int {
	faces := Pool(r.src, count, sides)
	r.logger.Debug("dice pool",
		zap.String("label", label),
		zap.Int("count", count),
		zap.Int("sides", sides),
		zap.Ints("faces", faces),
	)
	return faces
}

// Roll evaluates expr and logs the result.
func (r *Roller) Roll(expr Expression) RollResult {
	result := expr.Roll(r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses and rolls expr.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

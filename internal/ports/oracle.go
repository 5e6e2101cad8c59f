package ports

import (
	"context"

	"github.com/clkhoo5211/aphorism/internal/domain"
)

// OracleStore provides the oracle systems in pool order.
type OracleStore interface {
	Systems(ctx context.Context) ([]domain.System, error)
}

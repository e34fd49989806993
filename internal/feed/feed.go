package feed

import (
	"context"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

// ContractSpec identifies the instrument behind a subscription.
type ContractSpec struct {
	Symbol       string
	SecurityType enum.SecurityType
	Exchange     string
	Currency     string
}

// DataFeed supplies connectivity, subscriptions and the latest price view.
//
// Subscribe never panics across this boundary; failures surface as a
// false return after internal classification and fallback.
type DataFeed interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Subscribe(symbol string, contract ContractSpec) bool
	CurrentPrice(symbol string) (model.PriceSnapshot, bool)
}

package ibkr

import "github.com/shopspring/decimal"

// Wire messages of the TWS websocket bridge. Every frame carries a
// "type" discriminator; requests that expect a reply also carry "id".

type request struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

type contractPayload struct {
	Symbol       string `json:"symbol"`
	SecurityType string `json:"secType"`
	Exchange     string `json:"exchange"`
	Currency     string `json:"currency"`
}

type ticketPayload struct {
	Action     string          `json:"action"`
	OrderType  string          `json:"orderType"`
	LimitPrice decimal.Decimal `json:"lmtPrice"`
	StopPrice  decimal.Decimal `json:"auxPrice"`
	Quantity   decimal.Decimal `json:"totalQuantity"`
	Transmit   bool            `json:"transmit"`
}

type placeBracketRequest struct {
	request
	Contract contractPayload `json:"contract"`
	Parent   ticketPayload   `json:"parent"`
	Target   ticketPayload   `json:"takeProfit"`
	Stop     ticketPayload   `json:"stopLoss"`
}

type placeBracketResponse struct {
	ID       int64   `json:"id"`
	OrderIDs []int64 `json:"orderIds"`
	Error    string  `json:"error"`
}

type cancelOrderRequest struct {
	request
	OrderID int64 `json:"orderId"`
}

type ackResponse struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type marketDataRequest struct {
	request
	ReqID       int64           `json:"reqId"`
	Contract    contractPayload `json:"contract"`
	Granularity string          `json:"granularity"`
	Snapshot    bool            `json:"snapshot"`
}

type openOrdersResponse struct {
	ID     int64 `json:"id"`
	Orders []struct {
		OrderID   int64           `json:"orderId"`
		Symbol    string          `json:"symbol"`
		Status    string          `json:"status"`
		Filled    decimal.Decimal `json:"filled"`
		Remaining decimal.Decimal `json:"remaining"`
	} `json:"orders"`
	Error string `json:"error"`
}

type positionsResponse struct {
	ID        int64 `json:"id"`
	Positions []struct {
		Symbol   string          `json:"symbol"`
		Quantity decimal.Decimal `json:"position"`
		AvgCost  decimal.Decimal `json:"avgCost"`
	} `json:"positions"`
	Error string `json:"error"`
}

type accountValueResponse struct {
	ID    int64           `json:"id"`
	Value decimal.Decimal `json:"netLiquidation"`
	Error string          `json:"error"`
}

// Push frames arrive without a request id.

type tickEvent struct {
	Type  string          `json:"type"`
	ReqID int64           `json:"reqId"`
	Field string          `json:"field"` // bid | ask | last
	Price decimal.Decimal `json:"price"`
}

type orderStatusEvent struct {
	Type      string          `json:"type"`
	OrderID   int64           `json:"orderId"`
	Status    string          `json:"status"`
	Filled    decimal.Decimal `json:"filled"`
	Remaining decimal.Decimal `json:"remaining"`
	AvgPrice  decimal.Decimal `json:"avgFillPrice"`
}

type errorEvent struct {
	Type    string `json:"type"`
	ReqID   int64  `json:"reqId"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type nextValidIDEvent struct {
	Type    string `json:"type"`
	OrderID int64  `json:"orderId"`
}

package ws

const (
	// client - server
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgPing        = "ping"

	// server - client
	MsgReady  = "ready"
	MsgMarket = "market"
	MsgPong   = "pong"
	MsgError  = "error"
)

package sui

import "strings"

// Endpoints is a pair of fullnode URLs for one network.
type Endpoints struct {
	RPC string
	WS  string
}

var networks = map[string]Endpoints{
	"mainnet":  {RPC: "https://fullnode.mainnet.sui.io:443", WS: "wss://fullnode.mainnet.sui.io:443"},
	"testnet":  {RPC: "https://fullnode.testnet.sui.io:443", WS: "wss://fullnode.testnet.sui.io:443"},
	"devnet":   {RPC: "https://fullnode.devnet.sui.io:443", WS: "wss://fullnode.devnet.sui.io:443"},
	"localnet": {RPC: "http://127.0.0.1:9000", WS: "ws://127.0.0.1:9000"},
}

// LookupNetwork returns the public fullnode endpoints for a network alias.
func LookupNetwork(name string) (Endpoints, bool) {
	ep, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	return ep, ok
}

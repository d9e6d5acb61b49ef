package minterman

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/ethereum/go-ethereum/rpc"
	logger "github.com/sirupsen/logrus"
)

type Config struct {
	// URL of the upstream JSON-RPC endpoint
	URL string

	// Schema of the event log served at URL
	Schema Schema
}

type rawEvent struct {
	Timestamp uint64          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type rawEventPage struct {
	Events          []rawEvent `json:"events"`
	TotalEventCount uint64     `json:"total_event_count"`
}

// Client reads one upstream event log.
type Client struct {
	rpc    *rpc.Client
	schema Schema
}

func NewClient(cfg *Config) (*Client, error) {
	if _, err := factoriesFor(cfg.Schema); err != nil {
		return nil, err
	}

	c, err := rpc.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	return NewClientWithRPC(c, cfg.Schema), nil
}

func NewClientWithRPC(c *rpc.Client, schema Schema) *Client {
	return &Client{rpc: c, schema: schema}
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) GetTotalEventsCount(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.rpc.CallContext(ctx, &count, "minter_getTotalEventsCount"); err != nil {
		return 0, err
	}
	return count, nil
}

// FetchEvents keeps one slot per upstream index. Unknown variant tags come
// back as *Unrecognized; a malformed payload or a known tag with a body that
// does not decode fails the whole page.
func (c *Client) FetchEvents(ctx context.Context, start, length uint64) (*agreement.EventPage, error) {
	var page rawEventPage
	if err := c.rpc.CallContext(ctx, &page, "minter_getEvents", start, length); err != nil {
		return nil, err
	}

	out := &agreement.EventPage{
		Events:          make([]agreement.RawEvent, 0, len(page.Events)),
		TotalEventCount: page.TotalEventCount,
	}
	for i, ev := range page.Events {
		payload, err := DecodePayload(c.schema, ev.Payload)
		if err != nil {
			logger.WithFields(logger.Fields{
				"schema": c.schema,
				"index":  start + uint64(i),
			}).WithError(err).Error("undecodable upstream event")
			return nil, fmt.Errorf("event %d: %w", start+uint64(i), err)
		}
		out.Events = append(out.Events, agreement.RawEvent{
			Index:     start + uint64(i),
			Timestamp: ev.Timestamp,
			Payload:   payload,
		})
	}
	return out, nil
}

// ManagerClient queries the ledger manager for bridge pairs and ledger
// token metadata.
type ManagerClient struct {
	rpc *rpc.Client
}

func NewManagerClient(url string) (*ManagerClient, error) {
	c, err := rpc.Dial(url)
	if err != nil {
		return nil, err
	}
	return NewManagerClientWithRPC(c), nil
}

func NewManagerClientWithRPC(c *rpc.Client) *ManagerClient {
	return &ManagerClient{rpc: c}
}

func (m *ManagerClient) Close() {
	m.rpc.Close()
}

func (m *ManagerClient) GetBridgePairs(ctx context.Context) ([]agreement.BridgePairInfo, error) {
	var pairs []agreement.BridgePairInfo
	if err := m.rpc.CallContext(ctx, &pairs, "manager_getBridgePairs"); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (m *ManagerClient) GetLedgerMetadata(ctx context.Context, ledgerId common.Principal) ([]agreement.MetadataEntry, error) {
	var entries []agreement.MetadataEntry
	if err := m.rpc.CallContext(ctx, &entries, "ledger_metadata", ledgerId.String()); err != nil {
		return nil, err
	}
	return entries, nil
}

var (
	_ agreement.EventLog            = (*Client)(nil)
	_ agreement.BridgePairSource    = (*ManagerClient)(nil)
	_ agreement.TokenMetadataSource = (*ManagerClient)(nil)
)

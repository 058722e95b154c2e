package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecorder struct {
	actions []string
	err     error
}

func (s *stubRecorder) Record(_ context.Context, component, action, refID string, _ any) error {
	s.actions = append(s.actions, component+"/"+action+"/"+refID)
	return s.err
}

func newTestIntegration(opts ...Option) *Integration {
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return NewIntegration(append(base, opts...)...)
}

func TestDeployContractDefaults(t *testing.T) {
	integration := newTestIntegration()

	contract := integration.DeployContract(context.Background(), ContractConfig{})

	assert.Equal(t, "contract_1", contract.ID)
	assert.Equal(t, "Unnamed Contract", contract.Name)
	assert.Equal(t, "ethereum", contract.Network)
	assert.Equal(t, "ERC20", contract.Type)
	assert.Equal(t, "0x"+strings.ToUpper("contract_1"), contract.Address)
	assert.Equal(t, "0xCONTRACT_1", contract.Address)
	assert.Equal(t, StatusDeployed, contract.Status)
	assert.Equal(t, uint64(250000), contract.GasUsed)
}

func TestDeployContractSequentialAndLookup(t *testing.T) {
	integration := newTestIntegration()
	ctx := context.Background()

	integration.DeployContract(ctx, ContractConfig{Name: "AssetGrid Token"})
	integration.DeployContract(ctx, ContractConfig{Name: "Vault", Network: "polygon", Type: "ERC4626"})

	all := integration.Contracts(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "contract_1", all[0].ID)
	assert.Equal(t, "0xCONTRACT_2", all[1].Address)

	vault, ok := integration.Contract(ctx, "contract_2")
	require.True(t, ok)
	assert.Equal(t, "polygon", vault.Network)
	assert.Equal(t, "ERC4626", vault.Type)

	_, ok = integration.Contract(ctx, "contract_3")
	assert.False(t, ok)
}

func TestInteractWithContract(t *testing.T) {
	integration := newTestIntegration()

	result := integration.InteractWithContract(context.Background(), "0xNOT_DEPLOYED", "transfer",
		map[string]any{"to": "0xabc", "amount": 1000})

	assert.Equal(t, "0xNOT_DEPLOYED", result.ContractAddress)
	assert.Equal(t, "transfer", result.Method)
	assert.Equal(t, ResultSuccess, result.Status)
	assert.Equal(t, "0x"+strings.Repeat("a", 64), result.TransactionHash.Hex())
	assert.Equal(t, uint64(150000), result.GasUsed)
	assert.Equal(t, 1000, result.Params["amount"])

	empty := integration.InteractWithContract(context.Background(), "0xabc", "pause", nil)
	assert.NotNil(t, empty.Params)
	assert.Empty(t, empty.Params)
}

func TestInteractionResultJSON(t *testing.T) {
	result := newTestIntegration().InteractWithContract(context.Background(), "0xabc", "approve", nil)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "0x"+strings.Repeat("a", 64), decoded["transaction_hash"])
	assert.Equal(t, map[string]any{}, decoded["params"])
}

func TestMonitorBlockchainEvents(t *testing.T) {
	integration := newTestIntegration()

	events := integration.MonitorBlockchainEvents(context.Background(), map[string]any{"event": "Swap", "from_block": 10})

	require.Len(t, events, 2)
	assert.Equal(t, "Transfer", events[0].Name)
	assert.Equal(t, map[string]any{"from": "0xabc", "to": "0xdef", "value": 1000}, events[0].Args)
	assert.Equal(t, common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"), events[0].Topic)

	assert.Equal(t, "Approval", events[1].Name)
	assert.Equal(t, map[string]any{"owner": "0x123", "spender": "0x456", "value": 5000}, events[1].Args)
	assert.Equal(t, common.HexToHash("0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"), events[1].Topic)

	assert.Equal(t, events, integration.MonitorBlockchainEvents(context.Background(), nil))
}

func TestEventJSONIsFlat(t *testing.T) {
	events := newTestIntegration().MonitorBlockchainEvents(context.Background(), nil)

	raw, err := json.Marshal(events[0])
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(raw, &record))
	assert.Equal(t, map[string]any{
		"event":     "Transfer",
		"from":      "0xabc",
		"to":        "0xdef",
		"value":     float64(1000),
		"signature": "Transfer(address,address,uint256)",
		"topic":     "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
	}, record)
	assert.NotContains(t, record, "args")

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, events[0].Name, decoded.Name)
	assert.Equal(t, events[0].Topic, decoded.Topic)
	assert.Equal(t, map[string]any{"from": "0xabc", "to": "0xdef", "value": float64(1000)}, decoded.Args)
}

func TestNetworkStatusIsFixed(t *testing.T) {
	integration := newTestIntegration()
	ctx := context.Background()

	integration.DeployContract(ctx, ContractConfig{Network: "solana"})
	integration.DeployContract(ctx, ContractConfig{Network: "base"})
	integration.DeployContract(ctx, ContractConfig{})

	status := integration.NetworkStatus(ctx)
	assert.Equal(t, []string{"ethereum", "polygon", "arbitrum", "optimism"}, status.SupportedNetworks)
	assert.Equal(t, 3, status.DeployedContracts)
	assert.Equal(t, []string{"coinbase", "hardhat", "web3"}, status.ActiveIntegrations)

	status.SupportedNetworks[0] = "mutated"
	assert.Equal(t, "ethereum", integration.NetworkStatus(ctx).SupportedNetworks[0])
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	recorder := &stubRecorder{err: errors.New("queue unavailable")}
	integration := newTestIntegration(WithRecorder(recorder))
	ctx := context.Background()

	contract := integration.DeployContract(ctx, ContractConfig{})
	integration.InteractWithContract(ctx, contract.Address, "transfer", nil)
	integration.MonitorBlockchainEvents(ctx, nil)

	assert.Equal(t, []string{
		"contracts/deploy_contract/contract_1",
		"contracts/interact/0xCONTRACT_1",
		"contracts/monitor_events/",
	}, recorder.actions)
	assert.Equal(t, 1, integration.NetworkStatus(ctx).DeployedContracts)
}

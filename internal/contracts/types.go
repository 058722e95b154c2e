package contracts

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// 合约状态与调用结果状态。
const (
	StatusDeployed = "deployed"
	ResultSuccess  = "success"
)

// 默认合约参数。
const (
	DefaultContractName = "Unnamed Contract"
	DefaultNetwork      = "ethereum"
	DefaultContractType = "ERC20"
)

// 模拟的 gas 消耗。
const (
	DeploymentGasUsed  uint64 = 250000
	InteractionGasUsed uint64 = 150000
)

// SupportedNetworks 是固定支持的网络列表，与已部署合约所在的网络无关。
var SupportedNetworks = []string{"ethereum", "polygon", "arbitrum", "optimism"}

// ActiveIntegrations 是网络状态中展示的集成列表。
var ActiveIntegrations = []string{"coinbase", "hardhat", "web3"}

// PlaceholderTxHash 是所有合约调用返回的占位交易哈希。
var PlaceholderTxHash = common.HexToHash("0x" + strings.Repeat("a", 64))

// ContractConfig 描述部署合约时的可选参数。
type ContractConfig struct {
	Name    string `json:"name,omitempty"`
	Network string `json:"network,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Contract 是一条已部署的合约记录，地址由 ID 合成。
type Contract struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Network string `json:"network"`
	Type    string `json:"type"`
	Address string `json:"address"`
	Status  string `json:"status"`
	GasUsed uint64 `json:"gas_used"`
}

// InteractionResult 描述一次合约方法调用的结果。
type InteractionResult struct {
	ContractAddress string         `json:"contract_address"`
	Method          string         `json:"method"`
	Params          map[string]any `json:"params"`
	Status          string         `json:"status"`
	TransactionHash common.Hash    `json:"transaction_hash"`
	GasUsed         uint64         `json:"gas_used"`
}

// Event 是一条链上事件，Topic 为事件签名的 Keccak-256 哈希。
// 序列化时 Args 展开到顶层，与 event、signature、topic 并列。
type Event struct {
	Name      string
	Signature string
	Topic     common.Hash
	Args      map[string]any
}

// 事件记录中的保留字段，同名参数会被覆盖。
const (
	eventKeyName      = "event"
	eventKeySignature = "signature"
	eventKeyTopic     = "topic"
)

// MarshalJSON 输出扁平的事件记录，例如 {"event":"Transfer","from":"0xabc",...}。
func (e Event) MarshalJSON() ([]byte, error) {
	record := make(map[string]any, len(e.Args)+3)
	for key, value := range e.Args {
		record[key] = value
	}
	record[eventKeyName] = e.Name
	record[eventKeySignature] = e.Signature
	record[eventKeyTopic] = e.Topic
	return json.Marshal(record)
}

// UnmarshalJSON 解析扁平的事件记录，保留字段之外的键都归入 Args。
func (e *Event) UnmarshalJSON(data []byte) error {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	name, _ := record[eventKeyName].(string)
	signature, _ := record[eventKeySignature].(string)
	topic, _ := record[eventKeyTopic].(string)
	delete(record, eventKeyName)
	delete(record, eventKeySignature)
	delete(record, eventKeyTopic)

	*e = Event{Name: name, Signature: signature, Args: record}
	if topic != "" {
		e.Topic = common.HexToHash(topic)
	}
	return nil
}

// NetworkStatus 汇总支持的网络与部署情况。
type NetworkStatus struct {
	SupportedNetworks  []string `json:"supported_networks"`
	DeployedContracts  int      `json:"deployed_contracts"`
	ActiveIntegrations []string `json:"active_integrations"`
}

func newEvent(signature string, args map[string]any) Event {
	name := signature
	if idx := strings.IndexByte(signature, '('); idx >= 0 {
		name = signature[:idx]
	}
	return Event{
		Name:      name,
		Signature: signature,
		Topic:     crypto.Keccak256Hash([]byte(signature)),
		Args:      args,
	}
}

func sampleEvents() []Event {
	return []Event{
		newEvent("Transfer(address,address,uint256)", map[string]any{"from": "0xabc", "to": "0xdef", "value": 1000}),
		newEvent("Approval(address,address,uint256)", map[string]any{"owner": "0x123", "spender": "0x456", "value": 5000}),
	}
}

func cloneParams(params map[string]any) map[string]any {
	cloned := make(map[string]any, len(params))
	for key, value := range params {
		cloned[key] = value
	}
	return cloned
}

package primitives

// BlockEnv is the block-level context transactions execute in.
type BlockEnv struct {
	Number           BlockNumber     `json:"number"`
	Timestamp        uint64          `json:"timestamp"`
	GasPrices        GasPrices       `json:"gas_prices"`
	SequencerAddress ContractAddress `json:"sequencer_address"`
}

// BlockEnvFromHeader derives the execution context of a block.
func BlockEnvFromHeader(h *Header) BlockEnv {
	return BlockEnv{
		Number:           h.Number,
		Timestamp:        h.Timestamp,
		GasPrices:        h.GasPrices,
		SequencerAddress: h.SequencerAddress,
	}
}

// CfgEnv is the chain configuration in force from some block on. The fee
// token lives here rather than in BlockEnv: it is a property of the chain,
// not of a block.
//
// An empty VMResourceFeeCost encodes like a nil one and decodes as nil.
type CfgEnv struct {
	ChainID           ChainID            `json:"chain_id"`
	FeeTokenAddress   ContractAddress    `json:"fee_token_address"`
	VMResourceFeeCost map[string]float64 `json:"vm_resource_fee_cost"`
	InvokeTxMaxNSteps uint32             `json:"invoke_tx_max_n_steps"`
	ValidateMaxNSteps uint32             `json:"validate_max_n_steps"`
	MaxRecursionDepth uint64             `json:"max_recursion_depth"`
}

package gateway

// ReceiverABI is the subset of the settlement contract the relayer calls.
const ReceiverABI = `[
	{
		"inputs": [
			{
				"components": [
					{
						"components": [
							{"internalType": "address", "name": "from", "type": "address"},
							{"internalType": "address", "name": "to", "type": "address"},
							{"internalType": "address", "name": "token", "type": "address"},
							{"internalType": "uint256", "name": "amount", "type": "uint256"},
							{"internalType": "uint256", "name": "nonce", "type": "uint256"}
						],
						"internalType": "struct Receiver.MetaTx",
						"name": "metaTx",
						"type": "tuple"
					},
					{"internalType": "bytes", "name": "signature", "type": "bytes"}
				],
				"internalType": "struct Receiver.MetaTxWithSig[]",
				"name": "_metaTxWithSig",
				"type": "tuple[]"
			},
			{"internalType": "uint256", "name": "gas", "type": "uint256"}
		],
		"name": "batchTransfer",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "from", "type": "address"}],
		"name": "getNonce",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const (
	MethodBatchTransfer = "batchTransfer"
	MethodGetNonce      = "getNonce"
)

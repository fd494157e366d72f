package ledger

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// SwaglyAttestations v1 contract interface. Only the methods and events the
// backend uses are listed.
const contractABIJSON = `[
  {"type":"function","name":"getAttestation","stateMutability":"view",
   "inputs":[{"name":"uid","type":"bytes32","internalType":"bytes32"}],
   "outputs":[{"name":"","type":"tuple","internalType":"struct Attestation","components":[
     {"name":"uid","type":"bytes32","internalType":"bytes32"},
     {"name":"recipient","type":"address","internalType":"address"},
     {"name":"attestor","type":"address","internalType":"address"},
     {"name":"attestationType","type":"uint8","internalType":"enum AttestationType"},
     {"name":"status","type":"uint8","internalType":"enum AttestationStatus"},
     {"name":"timestamp","type":"uint256","internalType":"uint256"},
     {"name":"expirationTime","type":"uint256","internalType":"uint256"},
     {"name":"schemaId","type":"bytes32","internalType":"bytes32"},
     {"name":"data","type":"bytes","internalType":"bytes"}]}]},
  {"type":"function","name":"getUserAttestations","stateMutability":"view",
   "inputs":[{"name":"user","type":"address","internalType":"address"}],
   "outputs":[{"name":"","type":"bytes32[]","internalType":"bytes32[]"}]},
  {"type":"function","name":"isValid","stateMutability":"view",
   "inputs":[{"name":"uid","type":"bytes32","internalType":"bytes32"}],
   "outputs":[{"name":"","type":"bool","internalType":"bool"}]},
  {"type":"function","name":"isActivityCompleted","stateMutability":"view",
   "inputs":[{"name":"eventId","type":"bytes32","internalType":"bytes32"},
             {"name":"activityId","type":"bytes32","internalType":"bytes32"},
             {"name":"user","type":"address","internalType":"address"}],
   "outputs":[{"name":"","type":"bool","internalType":"bool"}]},
  {"type":"function","name":"decodeActivityCompletion","stateMutability":"view",
   "inputs":[{"name":"uid","type":"bytes32","internalType":"bytes32"}],
   "outputs":[{"name":"","type":"tuple","internalType":"struct ActivityCompletionData","components":[
     {"name":"eventId","type":"bytes32","internalType":"bytes32"},
     {"name":"activityId","type":"bytes32","internalType":"bytes32"},
     {"name":"tokensAwarded","type":"uint256","internalType":"uint256"},
     {"name":"scanType","type":"string","internalType":"string"},
     {"name":"activityName","type":"string","internalType":"string"},
     {"name":"completedAt","type":"uint256","internalType":"uint256"}]}]},
  {"type":"function","name":"decodeProofValidation","stateMutability":"view",
   "inputs":[{"name":"uid","type":"bytes32","internalType":"bytes32"}],
   "outputs":[{"name":"","type":"tuple","internalType":"struct ProofValidationData","components":[
     {"name":"activityId","type":"bytes32","internalType":"bytes32"},
     {"name":"proofId","type":"bytes32","internalType":"bytes32"},
     {"name":"proofType","type":"string","internalType":"string"},
     {"name":"approved","type":"bool","internalType":"bool"},
     {"name":"validator","type":"address","internalType":"address"},
     {"name":"tokensAwarded","type":"uint256","internalType":"uint256"},
     {"name":"validatedAt","type":"uint256","internalType":"uint256"}]}]},
  {"type":"function","name":"attestActivityCompletion","stateMutability":"nonpayable",
   "inputs":[{"name":"recipient","type":"address","internalType":"address"},
             {"name":"eventId","type":"bytes32","internalType":"bytes32"},
             {"name":"activityId","type":"bytes32","internalType":"bytes32"},
             {"name":"tokensAwarded","type":"uint256","internalType":"uint256"},
             {"name":"scanType","type":"string","internalType":"string"},
             {"name":"activityName","type":"string","internalType":"string"}],
   "outputs":[{"name":"uid","type":"bytes32","internalType":"bytes32"}]},
  {"type":"function","name":"attestProofValidation","stateMutability":"nonpayable",
   "inputs":[{"name":"recipient","type":"address","internalType":"address"},
             {"name":"activityId","type":"bytes32","internalType":"bytes32"},
             {"name":"proofId","type":"bytes32","internalType":"bytes32"},
             {"name":"proofType","type":"string","internalType":"string"},
             {"name":"approved","type":"bool","internalType":"bool"},
             {"name":"tokensAwarded","type":"uint256","internalType":"uint256"}],
   "outputs":[{"name":"uid","type":"bytes32","internalType":"bytes32"}]},
  {"type":"function","name":"revoke","stateMutability":"nonpayable",
   "inputs":[{"name":"uid","type":"bytes32","internalType":"bytes32"},
             {"name":"reason","type":"string","internalType":"string"}],
   "outputs":[]},
  {"type":"event","name":"AttestationCreated","anonymous":false,
   "inputs":[{"name":"uid","type":"bytes32","indexed":true,"internalType":"bytes32"},
             {"name":"recipient","type":"address","indexed":true,"internalType":"address"},
             {"name":"attestor","type":"address","indexed":true,"internalType":"address"},
             {"name":"attestationType","type":"uint8","indexed":false,"internalType":"enum AttestationType"},
             {"name":"schemaId","type":"bytes32","indexed":false,"internalType":"bytes32"},
             {"name":"timestamp","type":"uint256","indexed":false,"internalType":"uint256"}]},
  {"type":"event","name":"AttestationRevoked","anonymous":false,
   "inputs":[{"name":"uid","type":"bytes32","indexed":true,"internalType":"bytes32"},
             {"name":"revoker","type":"address","indexed":true,"internalType":"address"},
             {"name":"reason","type":"string","indexed":false,"internalType":"string"},
             {"name":"timestamp","type":"uint256","indexed":false,"internalType":"uint256"}]}
]`

const (
	methodGetAttestation           = "getAttestation"
	methodGetUserAttestations      = "getUserAttestations"
	methodIsValid                  = "isValid"
	methodIsActivityCompleted      = "isActivityCompleted"
	methodDecodeActivityCompletion = "decodeActivityCompletion"
	methodDecodeProofValidation    = "decodeProofValidation"
	methodAttestActivityCompletion = "attestActivityCompletion"
	methodAttestProofValidation    = "attestProofValidation"
	methodRevoke                   = "revoke"

	eventAttestationCreated = "AttestationCreated"
)

// ContractABI is the parsed contract interface.
var ContractABI = mustParseABI(contractABIJSON)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("ledger: invalid contract ABI: " + err.Error())
	}
	return parsed
}

// Tuple layouts. Field names follow abi.ToCamelCase of the component names.

type attestationTuple struct {
	Uid             [32]byte
	Recipient       common.Address
	Attestor        common.Address
	AttestationType uint8
	Status          uint8
	Timestamp       *big.Int
	ExpirationTime  *big.Int
	SchemaId        [32]byte
	Data            []byte
}

type activityCompletionTuple struct {
	EventId       [32]byte
	ActivityId    [32]byte
	TokensAwarded *big.Int
	ScanType      string
	ActivityName  string
	CompletedAt   *big.Int
}

type proofValidationTuple struct {
	ActivityId    [32]byte
	ProofId       [32]byte
	ProofType     string
	Approved      bool
	Validator     common.Address
	TokensAwarded *big.Int
	ValidatedAt   *big.Int
}

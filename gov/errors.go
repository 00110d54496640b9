package gov

import "errors"

// Engine error kinds. Callers match with errors.Is; ledger failures pass
// through with their own kinds and are not rewrapped here.
var (
	ErrProposalNotFound          = errors.New("proposal not found")
	ErrMemberNotFound            = errors.New("member not found")
	ErrMalformedProposal         = errors.New("malformed proposal")
	ErrVotingPeriodEnded         = errors.New("voting period ended")
	ErrVotingPeriodNotEnded      = errors.New("voting period not ended")
	ErrAlreadyVoted              = errors.New("already voted")
	ErrDescriptionTooLong        = errors.New("description exceeds max length")
	ErrProposalExecuted          = errors.New("proposal already executed")
	ErrProposalRejected          = errors.New("proposal rejected")
	ErrInsufficientTreasuryFunds = errors.New("insufficient treasury funds")
	ErrInvalidBeneficiary        = errors.New("invalid beneficiary address")
)

// Envelope verification errors.
var (
	ErrTxPubKeyInvalid = errors.New("pubkey invalid")
	ErrTxNonceInvalid  = errors.New("nonce invalid")
	ErrTxSigInvalid    = errors.New("signature invalid")
)

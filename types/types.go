package types

import (
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventCreatedType   = "created"
	EventTransferType  = "transfer"
	EventApprovalType  = "approval"
	EventVotedType     = "voted"
	EventFinalizedType = "finalized"
	EventExecutedType  = "executed"
)

const (
	CreatedKindToken    = "token"
	CreatedKindProposal = "proposal"
)

// EventCreated is emitted when the treasury token is created at genesis
// (Kind "token", Id the token id) and when a proposal is created
// (Kind "proposal", Id the proposal id).
type EventCreated struct {
	Id      uint32 `json:"id"`
	Creator string `json:"creator"`
	Admin   string `json:"admin"`
	Kind    string `json:"kind"`
}

func EncodeEventCreated(event *EventCreated) abci.Event {
	return abci.Event{
		Type: EventCreatedType,
		Attributes: []abci.EventAttribute{
			{Key: "id", Value: fmt.Sprintf("%v", event.Id), Index: true},
			{Key: "creator", Value: event.Creator, Index: true},
			{Key: "admin", Value: event.Admin, Index: false},
			{Key: "kind", Value: event.Kind, Index: false},
		},
	}
}

func DecodeEventCreated(originEvent abci.Event) *EventCreated {
	event := &EventCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "id":
			id, err := strconv.ParseUint(v.Value, 10, 32)
			if err != nil {
				return nil
			}
			event.Id = uint32(id)
		case "creator":
			event.Creator = v.Value
		case "admin":
			event.Admin = v.Value
		case "kind":
			event.Kind = v.Value
		}
	}
	return event
}

// EventTransfer mirrors the fungible-token transfer notification. From is
// empty for genesis mints.
type EventTransfer struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value uint64 `json:"value"`
}

func EncodeEventTransfer(event *EventTransfer) abci.Event {
	return abci.Event{
		Type: EventTransferType,
		Attributes: []abci.EventAttribute{
			{Key: "from", Value: event.From, Index: true},
			{Key: "to", Value: event.To, Index: true},
			{Key: "value", Value: fmt.Sprintf("%v", event.Value), Index: false},
		},
	}
}

func DecodeEventTransfer(originEvent abci.Event) *EventTransfer {
	event := &EventTransfer{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "from":
			event.From = v.Value
		case "to":
			event.To = v.Value
		case "value":
			value, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Value = value
		}
	}
	return event
}

type EventApproval struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Value   uint64 `json:"value"`
}

func EncodeEventApproval(event *EventApproval) abci.Event {
	return abci.Event{
		Type: EventApprovalType,
		Attributes: []abci.EventAttribute{
			{Key: "owner", Value: event.Owner, Index: true},
			{Key: "spender", Value: event.Spender, Index: false},
			{Key: "value", Value: fmt.Sprintf("%v", event.Value), Index: false},
		},
	}
}

func DecodeEventApproval(originEvent abci.Event) *EventApproval {
	event := &EventApproval{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "owner":
			event.Owner = v.Value
		case "spender":
			event.Spender = v.Value
		case "value":
			value, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Value = value
		}
	}
	return event
}

// EventVoted carries the voter and the height the ballot landed at.
type EventVoted struct {
	Who      string `json:"who"`
	Proposal uint32 `json:"proposal"`
	Approve  bool   `json:"approve"`
	When     uint64 `json:"when"`
}

func EncodeEventVoted(event *EventVoted) abci.Event {
	return abci.Event{
		Type: EventVotedType,
		Attributes: []abci.EventAttribute{
			{Key: "who", Value: event.Who, Index: true},
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "approve", Value: fmt.Sprintf("%v", event.Approve), Index: false},
			{Key: "when", Value: fmt.Sprintf("%v", event.When), Index: false},
		},
	}
}

func DecodeEventVoted(originEvent abci.Event) *EventVoted {
	event := &EventVoted{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "who":
			event.Who = v.Value
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 32)
			if err != nil {
				return nil
			}
			event.Proposal = uint32(proposal)
		case "approve":
			approve, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Approve = approve
		case "when":
			when, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.When = when
		}
	}
	return event
}

// EventFinalized is emitted when an expired proposal transitions out of
// Submitted the first time a vote or execution touches it.
type EventFinalized struct {
	Proposal uint32         `json:"proposal"`
	Status   ProposalStatus `json:"status"`
}

func EncodeEventFinalized(event *EventFinalized) abci.Event {
	return abci.Event{
		Type: EventFinalizedType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "status", Value: fmt.Sprintf("%v", uint64(event.Status)), Index: false},
		},
	}
}

func DecodeEventFinalized(originEvent abci.Event) *EventFinalized {
	event := &EventFinalized{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 32)
			if err != nil {
				return nil
			}
			event.Proposal = uint32(proposal)
		case "status":
			status, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Status = ProposalStatus(status)
		}
	}
	return event
}

type EventExecuted struct {
	Proposal    uint32 `json:"proposal"`
	Beneficiary string `json:"beneficiary"`
	Value       uint64 `json:"value"`
}

func EncodeEventExecuted(event *EventExecuted) abci.Event {
	return abci.Event{
		Type: EventExecutedType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "beneficiary", Value: event.Beneficiary, Index: true},
			{Key: "value", Value: fmt.Sprintf("%v", event.Value), Index: false},
		},
	}
}

func DecodeEventExecuted(originEvent abci.Event) *EventExecuted {
	event := &EventExecuted{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 32)
			if err != nil {
				return nil
			}
			event.Proposal = uint32(proposal)
		case "beneficiary":
			event.Beneficiary = v.Value
		case "value":
			value, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Value = value
		}
	}
	return event
}

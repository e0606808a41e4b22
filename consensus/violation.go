package consensus

import (
	"errors"
	"fmt"

	"github.com/twine-labs/solproof/solacc"
)

// ViolationKind says which rule a window broke.
type ViolationKind uint8

const (
	ChainBreak ViolationKind = iota + 1
	MerkleMismatch
	UnknownSlot
	BadSignature
	MissingSlot
	DuplicateSlot
	NoDepositFound
	MalformedInput
)

// One sentinel per kind so callers can errors.Is a violation.
var (
	ErrChainBreak     = errors.New("bank hash chain broken")
	ErrMerkleMismatch = errors.New("account proof does not match delta root")
	ErrUnknownSlot    = errors.New("slot outside window")
	ErrBadSignature   = errors.New("bad signature")
	ErrMissingSlot    = errors.New("missing slot")
	ErrDuplicateSlot  = errors.New("duplicate slot")
	ErrNoDepositFound = errors.New("no deposit found")
	ErrMalformedInput = errors.New("malformed input")
)

var kindInfo = map[ViolationKind]struct {
	name string
	err  error
}{
	ChainBreak:     {"ChainBreak", ErrChainBreak},
	MerkleMismatch: {"MerkleMismatch", ErrMerkleMismatch},
	UnknownSlot:    {"UnknownSlot", ErrUnknownSlot},
	BadSignature:   {"BadSignature", ErrBadSignature},
	MissingSlot:    {"MissingSlot", ErrMissingSlot},
	DuplicateSlot:  {"DuplicateSlot", ErrDuplicateSlot},
	NoDepositFound: {"NoDepositFound", ErrNoDepositFound},
	MalformedInput: {"MalformedInput", ErrMalformedInput},
}

func (k ViolationKind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return fmt.Sprintf("ViolationKind(%d)", uint8(k))
}

// Err returns the sentinel error of the kind.
func (k ViolationKind) Err() error {
	if info, ok := kindInfo[k]; ok {
		return info.err
	}
	return ErrMalformedInput
}

// MessageKind tells vote signatures from tower-sync signatures.
type MessageKind uint8

const (
	MessageNone MessageKind = iota
	MessageVote
	MessageTowerSync
)

func (m MessageKind) String() string {
	switch m {
	case MessageVote:
		return "vote"
	case MessageTowerSync:
		return "tower-sync"
	}
	return "none"
}

// Violation is the first rule a window broke, with whatever context the
// rule has: the slot, the account (MerkleMismatch) or validator
// (BadSignature) key, and the message kind for signatures.
type Violation struct {
	Kind    ViolationKind
	Slot    uint64
	Pubkey  solacc.Pubkey
	Message MessageKind
	Detail  string
}

func (v *Violation) Error() string {
	var s string
	switch v.Kind {
	case ChainBreak, UnknownSlot, MissingSlot, DuplicateSlot:
		s = fmt.Sprintf("%s(%d)", v.Kind, v.Slot)
	case MerkleMismatch:
		s = fmt.Sprintf("%s(%d, %s)", v.Kind, v.Slot, v.Pubkey)
	case BadSignature:
		s = fmt.Sprintf("%s(%s, %s)", v.Kind, v.Pubkey, v.Message)
	default:
		s = v.Kind.String()
	}
	if v.Detail != "" {
		s += ": " + v.Detail
	}
	return s
}

// Unwrap lets errors.Is match the kind's sentinel.
func (v *Violation) Unwrap() error {
	return v.Kind.Err()
}

func chainBreak(slot uint64, format string, args ...interface{}) *Violation {
	return &Violation{Kind: ChainBreak, Slot: slot,
		Detail: fmt.Sprintf(format, args...)}
}

func merkleMismatch(slot uint64, pk solacc.Pubkey) *Violation {
	return &Violation{Kind: MerkleMismatch, Slot: slot, Pubkey: pk}
}

func unknownSlot(slot uint64) *Violation {
	return &Violation{Kind: UnknownSlot, Slot: slot}
}

func badSignature(slot uint64, validator solacc.Pubkey, kind MessageKind) *Violation {
	return &Violation{Kind: BadSignature, Slot: slot, Pubkey: validator,
		Message: kind}
}

func missingSlot(slot uint64) *Violation {
	return &Violation{Kind: MissingSlot, Slot: slot}
}

func duplicateSlot(slot uint64) *Violation {
	return &Violation{Kind: DuplicateSlot, Slot: slot}
}

func malformed(format string, args ...interface{}) *Violation {
	return &Violation{Kind: MalformedInput, Detail: fmt.Sprintf(format, args...)}
}

// Verdict is the outcome of verifying a window: valid when Violation is nil.
type Verdict struct {
	Violation *Violation
}

// Valid is true when the window passed every check.
func (v Verdict) Valid() bool {
	return v.Violation == nil
}

// Err is nil for a valid verdict and the violation otherwise.
func (v Verdict) Err() error {
	if v.Violation == nil {
		return nil
	}
	return v.Violation
}

func (v Verdict) String() string {
	if v.Violation == nil {
		return "Valid"
	}
	return "Invalid(" + v.Violation.Error() + ")"
}

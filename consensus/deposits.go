package consensus

import (
	"github.com/twine-labs/solproof/solacc"
)

// FoundDeposit is a deposit message decoded from a proven account.
type FoundDeposit struct {
	Slot    uint64
	Account solacc.Pubkey
	Deposit *solacc.DepositMessage
}

// Deposits decodes every proof's account data with the deposit tag rule and
// returns the ones that decode, in proof order. Data that is not a deposit
// is skipped, and so are deleted (zero lamport) accounts. With a non nil
// program only accounts owned by it count.
//
// Deposits does not check the proofs themselves; that is Verify's job.
func Deposits(w *Window, program *solacc.Pubkey) []FoundDeposit {
	var found []FoundDeposit
	for i := range w.Proofs {
		p := &w.Proofs[i]
		if p.Account.Lamports == 0 {
			continue
		}
		if program != nil && p.Account.Owner != *program {
			continue
		}
		d, err := solacc.DecodeDeposit(p.Account.Data)
		if err != nil {
			if err != solacc.ErrNotDeposit {
				log.Debugf("proof %d: account %s: %v", i, p.Account.Pubkey, err)
			}
			continue
		}
		found = append(found, FoundDeposit{
			Slot:    p.Slot,
			Account: p.Account.Pubkey,
			Deposit: d,
		})
	}
	return found
}

// CheckDeposits fails with NoDepositFound unless at least one proven
// account holds a deposit message.
func CheckDeposits(w *Window, program *solacc.Pubkey) *Violation {
	if len(Deposits(w, program)) == 0 {
		v := &Violation{Kind: NoDepositFound}
		if program != nil {
			v.Detail = "no deposit in accounts owned by " + program.String()
		}
		return v
	}
	return nil
}

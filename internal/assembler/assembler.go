// Package assembler builds, signs, and submits transactions, and derives
// the wallet's next ledger snapshot from the submitted transaction alone.
package assembler

import (
	"context"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/mrz1836/kaswallet/internal/fee"
	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/ledger"
)

// Submitter broadcasts a signed transaction and returns its id.
type Submitter interface {
	Submit(ctx context.Context, tx *kaspa.RPCTransaction) (string, error)
}

// Planner prices a request and lays out its inputs and outputs.
type Planner interface {
	Plan(utxos []ledger.UTXO, req fee.Request, changeAddress string) (*fee.Plan, error)
}

// AddressDeriver derives the address at a derivation index.
type AddressDeriver interface {
	Address(d hdwallet.DerivationIndex) (string, error)
}

// KeySource returns the private key for a derivation index.
type KeySource interface {
	PrivateKey(d hdwallet.DerivationIndex) (*secp256k1.PrivateKey, error)
}

// Logger is the interface for assembler logging.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Result is a submitted transaction and the ledger that follows from it.
type Result struct {
	TransactionID string
	Transaction   *kaspa.Transaction
	Plan          *fee.Plan
	Ledger        *ledger.Ledger
}

// Assembler turns send requests into submitted transactions.
type Assembler struct {
	params    *kaspa.Params
	planner   Planner
	deriver   AddressDeriver
	submitter Submitter
	logger    Logger
}

// New creates an Assembler.
func New(params *kaspa.Params, planner Planner, deriver AddressDeriver, submitter Submitter, logger Logger) *Assembler {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Assembler{
		params:    params,
		planner:   planner,
		deriver:   deriver,
		submitter: submitter,
		logger:    logger,
	}
}

// BuildAndSubmit plans req against state, signs every input with the key
// of the UTXO it spends, and submits. On success the returned ledger has
// the spent inputs removed and the outputs paying the wallet added; on any
// failure state is unchanged and no ledger is returned.
func (a *Assembler) BuildAndSubmit(ctx context.Context, state *ledger.Ledger, req fee.Request, keys KeySource) (*Result, error) {
	candidates, err := a.candidates(state.Book())
	if err != nil {
		return nil, err
	}
	change := candidates[1]

	plan, err := a.planner.Plan(state.UTXOs(), req, change.Address)
	if err != nil {
		return nil, err
	}

	tx := buildTransaction(plan)
	inputs := plan.Selection.Inputs
	if err := kaspa.SignTransaction(tx, func(idx int) (*secp256k1.PrivateKey, error) {
		return keys.PrivateKey(inputs[idx].Derivation)
	}); err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	a.logger.Debug("submitting %s from %d sompi of inputs", plan.Selection, plan.Selection.Total())
	id, err := a.submitter.Submit(ctx, tx.ToRPC())
	if err != nil {
		a.logger.Error("submit failed: %v", err)
		return nil, err
	}

	txID, err := kaspa.TransactionIDFromHex(id)
	if err != nil {
		local := tx.ID()
		a.logger.Error("node returned malformed id %q, using %s", id, local)
		txID = local
	}

	next, err := state.Apply(a.diff(txID, tx, plan, candidates))
	if err != nil {
		return nil, err
	}

	return &Result{
		TransactionID: txID.String(),
		Transaction:   tx,
		Plan:          plan,
		Ledger:        next,
	}, nil
}

// candidates returns the next unused receive and change addresses.
func (a *Assembler) candidates(book *ledger.AddressBook) ([2]ledger.Candidate, error) {
	var out [2]ledger.Candidate
	for i, branch := range hdwallet.Branches {
		d := book.Next(branch)
		addr, err := a.deriver.Address(d)
		if err != nil {
			return out, fmt.Errorf("deriving %s: %w", d, err)
		}
		out[i] = ledger.Candidate{Address: addr, Derivation: d}
	}
	return out, nil
}

func (a *Assembler) diff(id kaspa.TransactionID, tx *kaspa.Transaction, plan *fee.Plan, candidates [2]ledger.Candidate) ledger.Diff {
	d := ledger.Diff{
		TransactionID: id,
		Consumed:      make([]kaspa.Outpoint, len(plan.Selection.Inputs)),
		Outputs:       make([]ledger.ProducedOutput, len(tx.Outputs)),
		Candidates:    candidates[:],
	}
	for i, u := range plan.Selection.Inputs {
		d.Consumed[i] = u.Outpoint
	}
	for i, out := range tx.Outputs {
		produced := ledger.ProducedOutput{Value: out.Value, ScriptPublicKey: out.ScriptPublicKey}
		if addr, err := kaspa.AddressFromScript(out.ScriptPublicKey, a.params.AddressPrefix); err == nil {
			produced.Address = addr.String()
		}
		d.Outputs[i] = produced
	}
	return d
}

func buildTransaction(plan *fee.Plan) *kaspa.Transaction {
	tx := &kaspa.Transaction{
		Inputs:  make([]*kaspa.TransactionInput, len(plan.Selection.Inputs)),
		Outputs: plan.Outputs,
	}
	for i, u := range plan.Selection.Inputs {
		entry := u.Entry
		tx.Inputs[i] = &kaspa.TransactionInput{
			PreviousOutpoint: u.Outpoint,
			SigOpCount:       1,
			UtxoEntry:        &entry,
		}
	}
	return tx
}

package entity

import (
	"fmt"
	"time"
)

// DialogueState represents where a multi-turn execution stands.
//
// State machine:
//
//	NeedsInput → NeedsApproval | NeedsVerification | Completed
//	NeedsVerification → NeedsApproval | NeedsInput | Rejected
//	NeedsApproval → Approved | Rejected | NeedsInput
//	Approved → Completed
//	Rejected → NeedsInput | Completed
//
// Only Approved and Completed mark the execution's output as final.
type DialogueState string

const (
	DialogueNeedsInput        DialogueState = "needs_input"
	DialogueNeedsApproval     DialogueState = "needs_approval"
	DialogueNeedsVerification DialogueState = "needs_verification"
	DialogueApproved          DialogueState = "approved"
	DialogueRejected          DialogueState = "rejected"
	DialogueCompleted         DialogueState = "completed"
)

// IsFinal reports whether output produced in this state may be consumed as
// a final result.
func (s DialogueState) IsFinal() bool {
	return s == DialogueApproved || s == DialogueCompleted
}

// dialogueTransitions is the allowed transition table for DialogueState.
// NeedsInput permits a self-transition so every additional input round still
// advances the turn counter.
var dialogueTransitions = map[DialogueState]map[DialogueState]struct{}{
	DialogueNeedsInput:        {DialogueNeedsInput: {}, DialogueNeedsApproval: {}, DialogueNeedsVerification: {}, DialogueCompleted: {}},
	DialogueNeedsVerification: {DialogueNeedsApproval: {}, DialogueNeedsInput: {}, DialogueRejected: {}},
	DialogueNeedsApproval:     {DialogueApproved: {}, DialogueRejected: {}, DialogueNeedsInput: {}},
	DialogueApproved:          {DialogueCompleted: {}},
	DialogueRejected:          {DialogueNeedsInput: {}, DialogueCompleted: {}},
	DialogueCompleted:         {},
}

// DialogueMessage is one exchanged turn kept for payload assembly.
type DialogueMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Dialogue tracks the multi-turn state of an execution. Turn increases
// strictly with every transition; two writers advancing the same dialogue
// can be ordered by it.
type Dialogue struct {
	State   DialogueState     `json:"state"`
	Turn    int               `json:"turn"`
	History []DialogueMessage `json:"history,omitempty"`
}

// NewDialogue starts a dialogue waiting for its first input.
func NewDialogue() *Dialogue {
	return &Dialogue{State: DialogueNeedsInput, Turn: 0}
}

// AdvanceDialogue is the pure transition function. It returns a copy of d
// moved to the target state with the turn counter incremented, or an error
// when the transition is not allowed. d itself is never mutated.
func AdvanceDialogue(d Dialogue, to DialogueState) (Dialogue, error) {
	if _, ok := dialogueTransitions[d.State][to]; !ok {
		return Dialogue{}, fmt.Errorf("dialogue transition %s -> %s is not allowed", d.State, to)
	}

	next := d
	next.State = to
	next.Turn = d.Turn + 1
	next.History = append([]DialogueMessage(nil), d.History...)
	return next, nil
}

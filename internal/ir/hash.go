package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed IDs. The version suffix leaves room
// for changing the hashed shape later.
const (
	DomainRecordEntry = "tickflow/record-entry/v1"
	DomainOutcome     = "tickflow/outcome/v1"
	DomainPlan        = "tickflow/plan/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordEntryID identifies one entry pushed onto a record stack.
func RecordEntryID(stack string, position int, name string, payload IRObject, tick int64) (string, error) {
	if payload == nil {
		payload = IRObject{}
	}
	canonical, err := MarshalCanonical(IRObject{
		"stack":    IRString(stack),
		"position": IRInt(position),
		"name":     IRString(name),
		"payload":  payload,
		"tick":     IRInt(tick),
	})
	if err != nil {
		return "", fmt.Errorf("RecordEntryID: %w", err)
	}
	return hashWithDomain(DomainRecordEntry, canonical), nil
}

// OutcomeID identifies a reactor's terminal outcome.
func OutcomeID(reactorID string, status OutcomeStatus, seq int64) string {
	canonical, err := MarshalCanonical(IRObject{
		"reactor_id": IRString(reactorID),
		"status":     IRString(status),
		"seq":        IRInt(seq),
	})
	if err != nil {
		// Only strings and ints are hashed here.
		panic(err)
	}
	return hashWithDomain(DomainOutcome, canonical)
}

// PlanDigest hashes a plan's compiled form. Two plans with the same digest
// build identical task trees.
func PlanDigest(p Plan) (string, error) {
	data, err := p.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("PlanDigest: %w", err)
	}
	return hashWithDomain(DomainPlan, data), nil
}

// MustRecordEntryID is like RecordEntryID but panics on error.
func MustRecordEntryID(stack string, position int, name string, payload IRObject, tick int64) string {
	id, err := RecordEntryID(stack, position, name, payload, tick)
	if err != nil {
		panic(err)
	}
	return id
}

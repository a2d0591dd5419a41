package bhs

import (
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// ChainTip is the head of the longest chain.
type ChainTip struct {
	Header TipHeader `json:"header"`
	State  string    `json:"state"`
	Height int       `json:"height"`
}

// TipHeader is the subset of header fields carried with the tip.
type TipHeader struct {
	Hash              chainhash.Hash `json:"hash"`
	CreationTimestamp int64          `json:"creationTimestamp"`
}

// HeaderSummary is one row of a header page.
type HeaderSummary struct {
	Hash              chainhash.Hash `json:"hash"`
	CreationTimestamp int64          `json:"creationTimestamp"`
}

// Created returns the header creation time.
func (h HeaderSummary) Created() time.Time {
	return time.Unix(h.CreationTimestamp, 0)
}

// HeaderDetail holds every field of a single block header.
type HeaderDetail struct {
	Hash              chainhash.Hash `json:"hash"`
	Version           int32          `json:"version"`
	PrevBlockHash     chainhash.Hash `json:"prevBlockHash"`
	MerkleRoot        chainhash.Hash `json:"merkleRoot"`
	CreationTimestamp int64          `json:"creationTimestamp"`
	DifficultyTarget  uint32         `json:"difficultyTarget"`
	Nonce             uint32         `json:"nonce"`
	Work              string         `json:"work"`
}

// Created returns the header creation time.
func (h HeaderDetail) Created() time.Time {
	return time.Unix(h.CreationTimestamp, 0)
}

// Peer is a connected network endpoint.
type Peer struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// Webhook is a registered callback URL and its delivery bookkeeping.
type Webhook struct {
	URL               string    `json:"url"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"createdAt"`
	ErrorsCount       int       `json:"errorsCount"`
	LastEmitStatus    string    `json:"lastEmitStatus"`
	LastEmitTimestamp time.Time `json:"lastEmitTimestamp"`
}

package popups

import (
	"encoding/json"
	"strconv"
	"testing"
)

const typedDataJSON = `{
	"types": {
		"EIP712Domain": [
			{"name": "name", "type": "string"},
			{"name": "version", "type": "string"},
			{"name": "chainId", "type": "uint256"}
		],
		"Permit": [
			{"name": "owner", "type": "address"},
			{"name": "value", "type": "uint256"}
		]
	},
	"primaryType": "Permit",
	"domain": {"name": "USD Coin", "version": "2", "chainId": 1},
	"message": {"owner": "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", "value": "1000000"}
}`

func TestParseTypedDataObject(t *testing.T) {
	td, err := ParseTypedData(json.RawMessage(typedDataJSON))
	if err != nil {
		t.Fatalf("ParseTypedData: %v", err)
	}
	if td.PrimaryType != "Permit" {
		t.Errorf("primaryType = %q", td.PrimaryType)
	}
	if td.Domain.Name != "USD Coin" {
		t.Errorf("domain name = %q", td.Domain.Name)
	}
}

func TestParseTypedDataDoubleEncoded(t *testing.T) {
	doubled, err := json.Marshal(typedDataJSON)
	if err != nil {
		t.Fatal(err)
	}
	td, err := ParseTypedData(doubled)
	if err != nil {
		t.Fatalf("ParseTypedData on string payload: %v", err)
	}
	if td.PrimaryType != "Permit" {
		t.Errorf("primaryType = %q", td.PrimaryType)
	}
	if td.Message["value"] != "1000000" {
		t.Errorf("message value = %v", td.Message["value"])
	}
}

func TestParseTypedDataRejectsGarbage(t *testing.T) {
	for i, raw := range []string{`42`, strconv.Quote("not json at all"), `[]`} {
		if _, err := ParseTypedData(json.RawMessage(raw)); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

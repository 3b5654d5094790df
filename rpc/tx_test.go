package rpc

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestGmStamp(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{0, 9393},
		{9393, 9393},
		{9394, 19393},
		{9999, 19393},
		{10000, 19393},
		{19999, 29393},
		{1238999, 1239393},
		{1239999, 1249393},
	}
	for _, c := range cases {
		got := GmStamp(big.NewInt(c.in))
		if got.Int64() != c.want {
			t.Errorf("GmStamp(%d) = %d, want %d", c.in, got.Int64(), c.want)
		}
	}
}

func TestGmStampPreservesHighDigits(t *testing.T) {
	fee, _ := new(big.Int).SetString("123456789123456789", 10)
	got := GmStamp(fee)
	tail := new(big.Int).Mod(got, big.NewInt(10000))
	if tail.Int64() != 9393 {
		t.Fatalf("stamped tail = %d, want 9393", tail.Int64())
	}
	diff := new(big.Int).Sub(got, fee)
	if diff.CmpAbs(big.NewInt(20000)) >= 0 {
		t.Fatalf("stamp moved the fee by %s, more than one stamp step", diff)
	}
}

func TestBumpGasLimit(t *testing.T) {
	cases := []struct {
		user, estimate, want uint64
	}{
		{0, 100000, 110000},
		{21000, 21000, 23100},
		{500000, 100000, 500000}, // user floor wins
		{110000, 100000, 110000}, // exactly at the bump
		{109999, 100000, 110000},
	}
	for _, c := range cases {
		if got := BumpGasLimit(c.user, c.estimate); got != c.want {
			t.Errorf("BumpGasLimit(%d, %d) = %d, want %d", c.user, c.estimate, got, c.want)
		}
	}
}

func TestDecodeERC20Call(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	amount := big.NewInt(1_000_000)

	calldata := func(selector []byte) []byte {
		data := append([]byte{}, selector...)
		data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
		data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
		return data
	}

	receiver, got, approval, ok := decodeERC20Call(calldata(transferSelector))
	if !ok || approval {
		t.Fatalf("transfer calldata: ok=%v approval=%v", ok, approval)
	}
	if receiver != to || got.Cmp(amount) != 0 {
		t.Fatalf("transfer decoded to %s %s", receiver, got)
	}

	_, _, approval, ok = decodeERC20Call(calldata(approveSelector))
	if !ok || !approval {
		t.Fatalf("approve calldata: ok=%v approval=%v", ok, approval)
	}

	if _, _, _, ok := decodeERC20Call([]byte{0xde, 0xad, 0xbe, 0xef}); ok {
		t.Fatal("short calldata decoded")
	}
	wrongSel := calldata([]byte{0x01, 0x02, 0x03, 0x04})
	if _, _, _, ok := decodeERC20Call(wrongSel); ok {
		t.Fatal("unknown selector decoded")
	}
}

func TestJsonRpcErrorString(t *testing.T) {
	plain := &JsonRpcError{Code: -32000, Message: "execution reverted"}
	if plain.Error() != "rpc error -32000: execution reverted" {
		t.Fatalf("plain error = %q", plain.Error())
	}
	withData := &JsonRpcError{Code: 3, Message: "execution reverted", Data: []byte{0x08, 0xc3, 0x79, 0xa0}}
	if withData.Error() != "rpc error 3: execution reverted (data: 0x08c379a0)" {
		t.Fatalf("data error = %q", withData.Error())
	}
}

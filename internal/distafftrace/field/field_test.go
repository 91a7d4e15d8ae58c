package field

import (
	"math/big"
	"testing"
)

func TestArithmetic(t *testing.T) {
	a := New(5)
	b := New(7)

	if got := a.Add(b); got.Uint64() != 12 {
		t.Errorf("Add = %v, want 12", got)
	}
	if got := b.Sub(a); got.Uint64() != 2 {
		t.Errorf("Sub = %v, want 2", got)
	}
	if got := a.Mul(b); got.Uint64() != 35 {
		t.Errorf("Mul = %v, want 35", got)
	}
}

func TestNegWrapsAroundModulus(t *testing.T) {
	got := New(1).Neg()
	want := new(big.Int).Sub(Modulus, big.NewInt(1))
	if got.BigInt().Cmp(want) != 0 {
		t.Errorf("Neg(1) = %s, want %s", got, want)
	}
}

func TestInv(t *testing.T) {
	a := New(12345)
	inv := a.Inv()
	if got := a.Mul(inv); !got.Equal(One) {
		t.Errorf("a * a^-1 = %v, want 1", got)
	}
}

func TestInvZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on Inv(0)")
		}
	}()
	Zero.Inv()
}

func TestFromBigIntRejectsOutOfRange(t *testing.T) {
	if _, err := FromBigInt(Modulus); err == nil {
		t.Fatal("expected error for value == Modulus")
	}
	if _, err := FromBigInt(big.NewInt(-1)); err == nil {
		t.Fatal("expected error for negative value")
	}
}

func TestEqual(t *testing.T) {
	if !New(3).Equal(New(3)) {
		t.Error("New(3) should equal New(3)")
	}
	if New(3).Equal(New(4)) {
		t.Error("New(3) should not equal New(4)")
	}
}

func TestModInverseExponent(t *testing.T) {
	alpha := uint64(3)
	inv := ModInverseExponent(alpha)
	pMinusOne := new(big.Int).Sub(Modulus, big.NewInt(1))
	product := new(big.Int).Mul(big.NewInt(int64(alpha)), inv)
	product.Mod(product, pMinusOne)
	if product.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("alpha * alpha_inv mod (p-1) = %s, want 1", product)
	}
}

// Package field implements arithmetic over the 128-bit prime field used by
// the distaff-trace decoder and assembler.
package field

import (
	"fmt"
	"math/big"
)

// Modulus is the field's prime: 2^128 - 45*2^40 + 1.
var Modulus = computeModulus()

func computeModulus() *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), 128)
	term := new(big.Int).Lsh(big.NewInt(45), 40)
	m.Sub(m, term)
	m.Add(m, big.NewInt(1))
	return m
}

// modMinusOne is Modulus-1, used to size exponents for Exp-based inverses.
var modMinusOne = new(big.Int).Sub(Modulus, big.NewInt(1))

// Element is a value in the field, always held reduced to [0, Modulus).
type Element struct {
	v *big.Int
}

// Zero is the additive identity.
var Zero = Element{v: big.NewInt(0)}

// One is the multiplicative identity.
var One = Element{v: big.NewInt(1)}

// New builds a field element from a uint64, reducing modulo the field prime
// (uint64 values are always already in range, but this keeps the contract
// uniform with FromBigInt).
func New(v uint64) Element {
	return Element{v: new(big.Int).SetUint64(v)}
}

// FromBigInt builds a field element from an arbitrary non-negative big.Int,
// rejecting values that are not already canonical representatives — the
// assembler uses this to reject param literals >= Modulus per spec.
func FromBigInt(v *big.Int) (Element, error) {
	if v.Sign() < 0 {
		return Element{}, fmt.Errorf("field: value %s is negative", v)
	}
	if v.Cmp(Modulus) >= 0 {
		return Element{}, fmt.Errorf("field: value %s is not less than the modulus", v)
	}
	return Element{v: new(big.Int).Set(v)}, nil
}

func reduce(v *big.Int) Element {
	r := new(big.Int).Mod(v, Modulus)
	return Element{v: r}
}

func (e Element) big() *big.Int {
	if e.v == nil {
		return big.NewInt(0)
	}
	return e.v
}

// Add returns e+o mod Modulus.
func (e Element) Add(o Element) Element { return reduce(new(big.Int).Add(e.big(), o.big())) }

// Sub returns e-o mod Modulus.
func (e Element) Sub(o Element) Element { return reduce(new(big.Int).Sub(e.big(), o.big())) }

// Mul returns e*o mod Modulus.
func (e Element) Mul(o Element) Element { return reduce(new(big.Int).Mul(e.big(), o.big())) }

// Neg returns -e mod Modulus.
func (e Element) Neg() Element { return reduce(new(big.Int).Neg(e.big())) }

// Exp returns e^n mod Modulus for a non-negative exponent n.
func (e Element) Exp(n *big.Int) Element {
	return Element{v: new(big.Int).Exp(e.big(), n, Modulus)}
}

// ExpSmall is Exp for a small, non-negative exponent — used for the S-box.
func (e Element) ExpSmall(n uint64) Element {
	return e.Exp(new(big.Int).SetUint64(n))
}

// Inv returns the multiplicative inverse of e; panics on zero, matching the
// decoder's convention that a zero-inverse attempt is a programming error
// (field elements fed through Inv always originate from Assert-guarded
// stack operations upstream).
func (e Element) Inv() Element {
	if e.IsZero() {
		panic("field: inverse of zero")
	}
	exp := new(big.Int).Sub(Modulus, big.NewInt(2))
	return e.Exp(exp)
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool { return e.big().Sign() == 0 }

// Equal reports whether e and o represent the same field element.
func (e Element) Equal(o Element) bool { return e.big().Cmp(o.big()) == 0 }

// BigInt returns a copy of e's canonical representative.
func (e Element) BigInt() *big.Int { return new(big.Int).Set(e.big()) }

// Uint64 truncates e to a uint64; callers only use this for values known to
// be small (opcode tags, loop counters) and not for arbitrary field values.
func (e Element) Uint64() uint64 { return e.big().Uint64() }

// String renders e in decimal.
func (e Element) String() string { return e.big().String() }

// ModInverseExponent returns the modular inverse of exp mod (Modulus-1),
// i.e. the exponent that undoes raising to the power exp — used to derive
// the Rescue inverse S-box exponent from the forward S-box exponent.
func ModInverseExponent(exp uint64) *big.Int {
	e := new(big.Int).SetUint64(exp)
	inv := new(big.Int).ModInverse(e, modMinusOne)
	if inv == nil {
		panic(fmt.Sprintf("field: %d has no inverse mod p-1", exp))
	}
	return inv
}

package cache

import (
	hamt "github.com/raviqqe/hamt"
)

type entryString string

// FNV hash prime
const primeRK = 16777619

func (s entryString) Hash() uint32 {
	data := []byte(s)

	hash := uint32(0)
	for i := 0; i < len(data); i++ {
		hash = hash*primeRK + uint32(data[i])
	}
	return hash
}

func (s entryString) Equal(e hamt.Entry) bool {
	other, ok := e.(entryString)
	if !ok {
		return false
	}

	return s == other
}

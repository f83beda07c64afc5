package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/tonkeeper/tongo"
)

// Account identifies a depositor, the operator, the pool itself or the venue.
type Account = tongo.AccountID

// ParseAccount accepts both the raw form (0:<hex>) and the user-friendly base64url form.
func ParseAccount(address string) (Account, error) {
	address = strings.TrimSpace(address)

	var accid Account
	var err error
	if strings.Contains(address, ":") {
		accid, err = tongo.AccountIDFromRaw(address)
	} else {
		accid, err = tongo.AccountIDFromBase64Url(address)
	}
	if err != nil {
		return Account{}, fmt.Errorf("%w %q: %v", ErrorInvalidAddress, address, err)
	}
	return accid, nil
}

// NamedAccount derives a deterministic basechain account from a label.
// Scenario files refer to participants by name.
func NamedAccount(name string) Account {
	sum := sha256.Sum256([]byte(name))
	accid := Account{Workchain: 0}
	copy(accid.Address[:], sum[:])
	return accid
}

package service

import (
	"strconv"
	"strings"

	"github.com/garyjia/drivehub/internal/domain/entity"
)

// AccountResolver maps a caller-supplied account index to one of the two
// configured identities. It never fails: anything other than exactly 1 selects
// account 0, and unconfigured fields come back empty.
type AccountResolver struct {
	primary   entity.Account
	secondary entity.Account
}

// NewAccountResolver creates a resolver for the two configured accounts
func NewAccountResolver(primary, secondary entity.Account) *AccountResolver {
	primary.Index = entity.PrimaryAccount
	secondary.Index = entity.SecondaryAccount
	return &AccountResolver{primary: primary, secondary: secondary}
}

// Resolve returns the account for index, defaulting to account 0
func (r *AccountResolver) Resolve(index int) entity.Account {
	if index == entity.SecondaryAccount {
		return r.secondary
	}
	return r.primary
}

// Accounts returns both accounts in index order
func (r *AccountResolver) Accounts() []entity.Account {
	return []entity.Account{r.primary, r.secondary}
}

// ParseIndex coerces a query or form value to an account index.
// Only an integer literal equal to 1 yields 1.
func ParseIndex(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n != entity.SecondaryAccount {
		return entity.PrimaryAccount
	}
	return n
}

// ParseIndexValue coerces a decoded JSON value to an account index
func ParseIndexValue(v interface{}) int {
	switch value := v.(type) {
	case float64:
		if value == float64(entity.SecondaryAccount) {
			return entity.SecondaryAccount
		}
	case int:
		if value == entity.SecondaryAccount {
			return entity.SecondaryAccount
		}
	case string:
		return ParseIndex(value)
	}
	return entity.PrimaryAccount
}
